// Package format содержит чистые функции форматирования значений для текстовой выгрузки.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateTimeLayout = "02.01.2006 15:04:05"

// DateTime форматирует момент времени как "dd.MM.yyyy HH:mm:ss" в указанной зоне.
// Нулевое время дает пустую строку, чтобы поле было пропущено.
func DateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateTimeLayout)
}

// Number форматирует целое число в десятичном виде.
func Number[T ~int | ~int32 | ~int64](value T) string {
	return strconv.FormatInt(int64(value), 10)
}

// PaddedNumber дополняет число нулями слева до ширины width.
func PaddedNumber(value, width int) string {
	s := strconv.Itoa(value)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Float форматирует дробное число в кратчайшем точном виде.
func Float(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Rating форматирует рейтинг частого собеседника (до шести значащих цифр).
func Rating(value float64) string {
	return strconv.FormatFloat(value, 'g', 6, 64)
}

// Username добавляет '@' к непустому имени пользователя.
func Username(username string) string {
	if username == "" {
		return ""
	}
	return "@" + username
}

// PhoneNumber приводит номер к виду "+<цифры>", разбивая его на группы.
// Номер, содержащий что-то кроме цифр и '+', возвращается без изменений.
func PhoneNumber(phone string) string {
	digits := strings.TrimPrefix(phone, "+")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return phone
		}
	}
	groups := phoneGroups(digits)
	if groups == nil {
		return "+" + digits
	}
	parts := make([]string, 0, len(groups))
	offset := 0
	for _, size := range groups {
		parts = append(parts, digits[offset:offset+size])
		offset += size
	}
	return "+" + strings.Join(parts, " ")
}

// phoneGroups возвращает размеры групп цифр для известных форматов номеров.
func phoneGroups(digits string) []int {
	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '1'):
		return []int{1, 3, 3, 4}
	case len(digits) == 12 && strings.HasPrefix(digits, "44"):
		return []int{2, 4, 6}
	case len(digits) == 12 && strings.HasPrefix(digits, "380"):
		return []int{3, 2, 3, 4}
	}
	return nil
}

// Число знаков дробной части для валют, у которых их не два.
var currencyExponents = map[string]int32{
	"BIF": 0, "BYR": 0, "CLF": 4, "CLP": 0, "CVE": 0, "DJF": 0, "GNF": 0,
	"IQD": 3, "IRR": 0, "ISK": 0, "JOD": 3, "JPY": 0, "KMF": 0, "KRW": 0,
	"KWD": 3, "LYD": 3, "MGA": 0, "OMR": 3, "PYG": 0, "RWF": 0, "TND": 3,
	"UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
}

// CurrencyExponent возвращает число знаков дробной части валюты.
func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// MoneyAmount переводит сумму из минимальных единиц валюты в "<сумма> <валюта>".
func MoneyAmount(amount int64, currency string) string {
	exp := CurrencyExponent(currency)
	value := decimal.New(amount, -exp).StringFixed(exp)
	if currency == "" {
		return value
	}
	return value + " " + currency
}
