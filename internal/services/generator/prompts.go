package generator

import (
	"fmt"
)

const mapSystemPrompt = "Ты — эксперт по анализу видео-контента. " +
	"Извлеки из данного фрагмента транскрипта:\n" +
	"1. Ключевые идеи и тезисы\n" +
	"2. Конкретные факты, цифры, примеры\n" +
	"3. Цитаты спикера\n" +
	"4. Структуру аргументации\n\n" +
	"Сохраняй техническую точность. Не добавляй ничего от себя. " +
	"Отвечай на русском языке."

const mediumSystemPrompt = "Ты — профессиональный автор статей. " +
	"На основе предоставленных саммари фрагментов видео напиши развёрнутую " +
	"статью для платформы Medium.\n\n" +
	"Требования:\n" +
	"- Формат: Markdown\n" +
	"- Объём: 1500–3000 слов\n" +
	"- Тон: разговорно-экспертный\n" +
	"- Структура: заголовок, вступление с hook, подзаголовки, заключение\n" +
	"- Язык: СТРОГО русский, независимо от языка исходного контента"

const habrSystemPrompt = "Ты — профессиональный технический автор. " +
	"На основе предоставленных саммари фрагментов видео напиши техническую " +
	"статью для Habr.\n\n" +
	"Требования:\n" +
	"- Формат: Markdown\n" +
	"- Объём: 1500–3000 слов\n" +
	"- Тон: формально-технический\n" +
	"- Структура: заголовок, оглавление, подробные разделы, примеры, заключение\n" +
	"- Язык: СТРОГО русский, независимо от языка исходного контента"

const linkedinSystemPrompt = "Ты — эксперт по LinkedIn-контенту. " +
	"На основе предоставленных саммари фрагментов видео напиши пост " +
	"для LinkedIn.\n\n" +
	"Требования:\n" +
	"- Объём: 500–1300 символов\n" +
	"- Тон: профессиональный\n" +
	"- Структура: hook-фраза в первой строке, ключевой инсайт, CTA в конце\n" +
	"- Язык: СТРОГО русский, независимо от языка исходного контента"

const researchSystemPrompt = "Ты — научный редактор. " +
	"На основе предоставленных саммари фрагментов видео напиши обзорную " +
	"статью в научно-популярном стиле.\n\n" +
	"Требования:\n" +
	"- Формат: Markdown\n" +
	"- Объём: 2000–4000 слов\n" +
	"- Тон: академический, нейтральный\n" +
	"- Структура: аннотация, введение, основные разделы, выводы, ограничения\n" +
	"- Язык: СТРОГО русский, независимо от языка исходного контента"

const bananaSystemPrompt = "Ты — режиссёр коротких видео. " +
	"На основе предоставленных саммари фрагментов видео составь раскадровку " +
	"для генерации видео.\n\n" +
	"Требования:\n" +
	"- Ответ строго в формате JSON, без пояснений и без markdown-форматирования\n" +
	"- Структура: {\"style_summary\": \"...\", \"scenes\": [{\"scene_number\": 1, " +
	"\"visual_prompt\": \"...\", \"voiceover_text\": \"...\"}]}\n" +
	"- style_summary: общее описание визуального стиля ролика\n" +
	"- scenes: от 5 до 10 сцен, scene_number сквозная нумерация с 1\n" +
	"- visual_prompt: описание кадра на английском языке\n" +
	"- voiceover_text: закадровый текст СТРОГО на русском языке"

// revisionAddendum appends the rejected-draft context to a channel
// system prompt on a regeneration pass.
func revisionAddendum(report, previousText string) string {
	return fmt.Sprintf(
		"\n\nВНИМАНИЕ: предыдущая версия текста была отклонена редактором. "+
			"Ниже отчёт о проблемах:\n%s\n\n"+
			"Исправь указанные проблемы, сохраняя корректные части текста. "+
			"Предыдущая версия текста для контекста:\n%s",
		report, previousText,
	)
}

// systemPromptFor maps a payload key to its channel system prompt
func systemPromptFor(payloadKey string) (string, bool) {
	switch payloadKey {
	case "medium_text":
		return mediumSystemPrompt, true
	case "habr_text":
		return habrSystemPrompt, true
	case "linkedin_text":
		return linkedinSystemPrompt, true
	case "research_article":
		return researchSystemPrompt, true
	case "banana_video_prompt":
		return bananaSystemPrompt, true
	default:
		return "", false
	}
}
