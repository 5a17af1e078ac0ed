package diag

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ukrainian holds the translations of every diagnostic format. Keys are the
// English format strings used at the error sites.
var ukrainian = map[string]string{
	// phases and locations
	"lexical error":             "лексична помилка",
	"syntax error":              "синтаксична помилка",
	"semantic error":            "семантична помилка",
	"load error":                "помилка завантаження",
	"stack underflow":           "спустошення стеку",
	"unresolved label":          "нерозв'язана мітка",
	"uninitialized variable":    "неініціалізована змінна",
	"type mismatch":             "невідповідність типів",
	"division by zero":          "ділення на нуль",
	"undeclared variable":       "неоголошена змінна",
	"invalid assignment target": "недопустима ціль присвоєння",
	"invalid input":             "недопустиме введення",
	"step limit exceeded":       "перевищено ліміт кроків",
	"on line %d":                "у рядку %d",
	"at ip %d":                  "на інструкції %d",
	"line %d":                   "рядок %d",

	// lexer
	"unexpected character %q":                    "неочікуваний символ %q",
	"unexpected character %q after '!'":          "неочікуваний символ %q після '!'",
	"expected '=' after '!' at end of input":     "очікувався '=' після '!' в кінці програми",
	"malformed float literal %q":                 "некоректне дійсне число %q",
	"malformed float literal %q at end of input": "некоректне дійсне число %q в кінці програми",
	"integer literal %q is out of range":         "ціле число %q поза допустимим діапазоном",
	"float literal %q is out of range":           "дійсне число %q поза допустимим діапазоном",

	// parser
	"unexpected end of program, expected %q":             "неочікуваний кінець програми, очікувався %q",
	"unexpected end of program, expected identifier":     "неочікуваний кінець програми, очікувався ідентифікатор",
	"unexpected end of program, expected statement":      "неочікуваний кінець програми, очікувався оператор",
	"unexpected end of program, expected expression":     "неочікуваний кінець програми, очікувався вираз",
	"unexpected end of program, expected \"func\"":       "неочікуваний кінець програми, очікувалось \"func\"",
	"unexpected end of program, expected \"}\"":          "неочікуваний кінець програми, очікувалась \"}\"",
	"expected %q, got %s":                                "очікувався %q, отримано %s",
	"expected identifier, got %s":                        "очікувався ідентифікатор, отримано %s",
	"expected declaration, got %s":                       "очікувалось оголошення, отримано %s",
	"expected statement, got %s":                         "очікувався оператор, отримано %s",
	"expected expression, got %s":                        "очікувався вираз, отримано %s",
	"expected type int, float or bool, got %s":           "очікувався тип int, float або bool, отримано %s",
	"expected \"=\" after %q, got %s":                    "очікувався \"=\" після %q, отримано %s",
	"expected short variable declaration in for, got %s": "у for очікувалось коротке оголошення змінної, отримано %s",
	"unexpected %s after the end of main":                "неочікуваний %s після кінця main",
	"constant %q needs a value, got %s":                  "константа %q потребує значення, отримано %s",
	"declaration of %q is not allowed inside a block":    "оголошення %q не дозволене всередині блоку",
	"variable %q is already declared":                    "змінну %q вже оголошено",
	"undeclared variable %q":                             "неоголошена змінна %q",
	"cannot assign to constant %q":                       "не можна присвоїти значення константі %q",
	"cannot assign %s value to %s variable %q":           "не можна присвоїти значення типу %[1]s змінній %[3]q типу %[2]s",
	"variable %q is used before it is assigned":          "змінна %q використовується до присвоєння значення",
	"%s condition must be bool, got %s":                  "умова %s повинна мати тип bool, отримано %s",
	"case value of type %s cannot match %s subject":      "значення case типу %s не можна порівняти з виразом switch типу %s",
	"operator %s cannot be applied to %s and %s":         "оператор %s не застосовний до %s та %s",
	"unary %s requires a numeric operand, got %s":        "унарний %s потребує числового операнда, отримано %s",

	// loader
	"missing header %q":                         "відсутній заголовок %q",
	"unexpected header %q, want %q":             "неочікуваний заголовок %q, очікувався %q",
	"section header %q expected":                "очікувався заголовок секції %q",
	"section header %q expected, got %q":        "очікувався заголовок секції %q, отримано %q",
	"missing terminator for section %q":         "секцію %q не закрито",
	"two elements expected, got %d":             "очікувалось два елементи, отримано %d",
	"invalid variable name %q":                  "недопустиме ім'я змінної %q",
	"duplicate variable %q":                     "змінну %q оголошено двічі",
	"unknown type %q for variable %q":           "невідомий тип %q змінної %q",
	"invalid label name %q":                     "недопустиме ім'я мітки %q",
	"duplicate label %q":                        "мітку %q оголошено двічі",
	"invalid index %q for label %q":             "недопустимий індекс %q мітки %q",
	"unknown type %q for constant %q":           "невідомий тип %q константи %q",
	"invalid %s literal %q":                     "недопустимий літерал %s %q",
	"unknown tag %q":                            "невідомий тег %q",
	"invalid label %q":                          "недопустима мітка %q",
	"operator %q is not valid for tag %s":       "оператор %q недопустимий для тегу %s",
	"unexpected content after code section: %q": "зайвий вміст після секції коду: %q",
	"label %q points past the end of code (%d)": "мітка %q вказує за межі коду (%d)",

	// machine
	"pop on empty stack":                 "вилучення з порожнього стеку",
	"label %q is not bound":              "мітку %q не визначено",
	"expected a label":                   "очікувалась мітка",
	"variable %q is not declared":        "змінну %q не оголошено",
	"variable %q has no value":           "змінна %q не має значення",
	"%s is not a value":                  "%s не є значенням",
	"condition is %s, not bool":          "умова має тип %s, а не bool",
	"scan needs a variable":              "scan потребує змінної",
	"no input for %q":                    "немає введення для %q",
	"reading %q: %v":                     "читання %q: %v",
	"%q is not a valid %s value for %q":  "%q не є допустимим значенням %s для %q",
	"cannot assign to %s":                "не можна присвоїти значення %s",
	"cannot assign %s to %s variable %q": "не можна присвоїти %[1]s змінній %[3]q типу %[2]s",
	"unary %s needs a number, got %s":    "унарний %s потребує числа, отримано %s",
	"%s and %s operands for %s":          "операнди %s та %s для %s",
	"operator %s needs numbers, got %s":  "оператор %s потребує чисел, отримано %s",
	"operator %s is not arithmetic":      "оператор %s не є арифметичним",
	"%d / 0":                             "%d / 0",
	"%d %% 0":                            "%d %% 0",
	"%s / 0":                             "%s / 0",
	"%s %% 0":                            "%s %% 0",
	"stopped after %d steps":             "зупинено після %d кроків",
	"unknown instruction tag %s":         "невідомий тег інструкції %s",
}

func init() {
	for key, msg := range ukrainian {
		_ = message.SetString(language.Ukrainian, key, msg)
	}
}
