// Package text рендерит модель выгрузки в многофайловый текстовый архив.
package text

import (
	"strings"
	"time"
)

// Варианты перевода строки.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Pair — одна пара ключ-значение блока. Порядок пар в блоке сохраняется.
type Pair struct {
	Key   string
	Value string
}

// Codec сериализует блоки ключ-значение и сообщения.
// Не имеет изменяемого состояния и может вызываться рекурсивно.
type Codec struct {
	LineBreak           string
	InternalLinksDomain string
	Location            *time.Location
}

// NewCodec создает кодек; пустой перевод строки заменяется на LF.
func NewCodec(lineBreak, internalLinksDomain string, loc *time.Location) Codec {
	if lineBreak == "" {
		lineBreak = LF
	}
	if loc == nil {
		loc = time.UTC
	}
	return Codec{LineBreak: lineBreak, InternalLinksDomain: internalLinksDomain, Location: loc}
}

// KeyValue сериализует пары в блок. Пары с пустым значением пропускаются.
// Многострочное значение пишется как "key:" и строки с префиксом "> ".
func (c Codec) KeyValue(pairs ...Pair) string {
	var b strings.Builder
	for _, p := range pairs {
		if p.Value == "" {
			continue
		}
		b.WriteString(p.Key)
		if newline := strings.IndexByte(p.Value, '\n'); newline >= 0 {
			b.WriteByte(':')
			b.WriteString(c.LineBreak)
			c.multiline(&b, p.Value, newline)
		} else {
			b.WriteString(": ")
			b.WriteString(p.Value)
			b.WriteString(c.LineBreak)
		}
	}
	return b.String()
}

// multiline пишет строки значения, начиная с известной позиции первого '\n'.
// Завершающий '\r' строки отбрасывается, пустой хвост после последнего '\n' не пишется.
func (c Codec) multiline(b *strings.Builder, value string, newline int) {
	offset := 0
	for newline >= 0 {
		b.WriteString("> ")
		b.WriteString(strings.TrimSuffix(value[offset:newline], "\r"))
		b.WriteString(c.LineBreak)
		offset = newline + 1
		newline = strings.IndexByte(value[offset:], '\n')
		if newline >= 0 {
			newline += offset
		}
	}
	if offset < len(value) {
		b.WriteString("> ")
		b.WriteString(value[offset:])
		b.WriteString(c.LineBreak)
	}
}

// JoinList склеивает фрагменты через разделитель.
func JoinList(separator string, list []string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	}
	return strings.Join(list, separator)
}
