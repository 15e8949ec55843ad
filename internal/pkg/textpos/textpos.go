// Package textpos переводит смещения в единицах UTF-16, которыми оперирует Telegram,
// в смещения в кодовых точках Unicode.
package textpos

import "unicode/utf16"

// Index — таблица соответствия смещений UTF-16 смещениям в кодовых точках для одной строки.
type Index struct {
	runes []int // runes[i] — номер кодовой точки, которой принадлежит i-я единица UTF-16
	total int
}

// NewIndex строит таблицу для текста.
func NewIndex(text string) Index {
	runes := make([]int, 0, len(text)+1)
	n := 0
	for _, r := range text {
		width := utf16.RuneLen(r)
		if width < 1 {
			// Недопустимые для UTF-16 значения Telegram кодирует заменяющим символом.
			width = 1
		}
		for i := 0; i < width; i++ {
			runes = append(runes, n)
		}
		n++
	}
	runes = append(runes, n)
	return Index{runes: runes, total: n}
}

// Runes возвращает длину текста в кодовых точках.
func (x Index) Runes() int {
	return x.total
}

// Convert переводит фрагмент (offset, length) в единицах UTF-16 в кодовые точки.
// Границы, выходящие за конец текста, прижимаются к нему; отрицательные значения дают ok == false.
func (x Index) Convert(offset, length int) (int, int, bool) {
	if offset < 0 || length < 0 {
		return 0, 0, false
	}

	last := len(x.runes) - 1
	end := offset + length
	if offset > last {
		offset = last
	}
	if end > last {
		end = last
	}

	start := x.runes[offset]
	stop := x.runes[end]
	return start, stop - start, true
}
