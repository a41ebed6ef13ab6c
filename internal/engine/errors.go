package engine

import "errors"

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrEmptyCommand — шаблон отрендерился в пустую команду.
	ErrEmptyCommand = errors.New("rendered command is empty")
)
