package domain

import "strings"

var bankCodes = map[string]string{
	"Тинькофф":             "TBANK",
	"Т-Банк":               "TBANK",
	"Сбербанк":             "SBERBANK",
	"ВТБ":                  "VTB",
	"Альфа-Банк":           "ALFABANK",
	"Газпромбанк":          "GAZPROMBANK",
	"Озон Банк":            "OZONBANK",
	"Открытие":             "OTKRITIE",
	"Совкомбанк":           "SOVCOMBANK",
	"Росбанк":              "ROSBANK",
	"ЮниКредит":            "UNICREDIT",
	"Ситибанк":             "CITIBANK",
	"Русский Стандарт":     "RUSSIANSTANDARD",
	"ПСБ":                  "PSB",
	"ДОМ.РФ":               "DOMRF",
	"МТС Банк":             "MTSBANK",
	"УралСиб":              "URALSIB",
	"Райффайзенбанк":       "RAIFFEISEN",
	"Почта Банк":           "POCHTABANK",
	"Банк Санкт-Петербург": "SPBBANK",
	"РНКБ":                 "RNKB",
	"Россельхозбанк":       "ROSSELKHOZBANK",
	"ОТП Банк":             "OTPBANK",
	"Хоум Кредит":          "HOMECREDIT",
}

// CanonicalBank приводит название банка к коду из справочника.
// Неизвестные названия возвращаются в верхнем регистре как есть.
func CanonicalBank(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := bankCodes[name]; ok {
		return code
	}
	return strings.ToUpper(name)
}
