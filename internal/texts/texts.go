// Package texts holds all user-facing message strings in one place so the
// handlers and the flow stay free of literals.
package texts

const (
	ButtonNewOrder      = "🚰 Создать заявку на доставку воды"
	ButtonShareLocation = "📍 Поделиться геолокацией"
	ButtonSharePhone    = "📞 Отправить номер телефона"
	ButtonPrevMonth     = "⬅ Предыдущий месяц"
	ButtonNextMonth     = "➡ Следующий месяц"

	Greeting     = "Добро пожаловать! Нажмите кнопку ниже, чтобы создать заявку."
	AskAddress   = "Введите адрес доставки или поделитесь геолокацией."
	AskPhoneFmt  = "Ваш адрес: %s\nВведите номер телефона или нажмите кнопку ниже."
	PhoneInvalid = "Пожалуйста, введите корректный номер телефона."

	ChooseDate    = "Выберите дату доставки:"
	DateChosenFmt = "Вы выбрали дату доставки: %s"

	AskBottles         = "Введите количество бутылок воды."
	BottlesNotNumber   = "Пожалуйста, введите число."
	BottlesNotPositive = "Пожалуйста, введите положительное число бутылок."

	OrderAccepted = "Заявка принята! Ожидайте доставки."
	StorageError  = "Произошла ошибка при сохранении заявки. Пожалуйста, попробуйте позже."

	// Fallbacks stored as the address when reverse geocoding degrades.
	AddressNotFound      = "Адрес не найден"
	AddressRequestFailed = "Ошибка получения адреса"
	AddressParseFailed   = "Ошибка обработки адреса"

	ManagerSummaryFmt = "Новая заявка!\n\n" +
		"📅 Дата доставки: %s\n" +
		"🏠 Адрес: %s\n" +
		"📞 <a href='tel:%s'>%s</a>\n" +
		"🧴 Бутылки: %d\n" +
		"👤 Клиент: %s"

	OrdersEmpty     = "Заявок пока нет."
	OrdersDenied    = "Команда доступна только менеджеру."
	OrderRowFmt     = "#%d · %s · %s · %s · %d бут."
	UnknownTextHint = "Нажмите кнопку ниже, чтобы создать заявку."
)
