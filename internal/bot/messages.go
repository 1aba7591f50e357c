package bot

import "fmt"

const (
	quizIntro = "🎯 *Бесплатный дизайн-макет*\n\n" +
		"Ответьте на пару вопросов, это займёт меньше минуты. " +
		"После заявки менеджер свяжется с вами и подготовит макет первого экрана."
	quizBusinessPrompt = "*Вопрос 1 из 2.* Чем вы занимаетесь?"
	quizGoalPrompt     = "*Вопрос 2 из 2.* Какая главная задача сайта?"
	quizContactPrompt  = "📞 Оставьте номер телефона, чтобы менеджер мог связаться с вами.\n\n" +
		"Нажмите «Отправить контакт» или введите номер вручную."
	quizConfirmPrompt = "Всё верно? Нажмите «Отправить заявку»."
	orderConfirmed    = "✅ *Заявка %s принята!*\n\n" +
		"Менеджер свяжется с вами в ближайшее время. Проверить статус: /status"

	msgRateLimited   = "Вы уже отправили несколько заявок за последний час. Пожалуйста, подождите."
	msgInvalidPhone  = "Введите корректный номер телефона (например +7 999 123-45-67) или нажмите «Отправить контакт»."
	msgOrderCanceled = "Заявка отменена."
	msgCanceled      = "Действие отменено."
	msgOrderFailed   = "Не удалось сохранить заявку. Попробуйте ещё раз чуть позже."
	msgSessionLost   = "Заявка отменена: сессия устарела. Начните заново: /order"
	msgMenu          = "Меню:"
	msgMainMenu      = "Главное меню:"
	msgFallback      = "Используйте кнопки меню или команды: /menu, /order, /portfolio, /price"
	msgAccessDenied  = "Доступ запрещён."
)

func welcomeMessage(studio string) string {
	return fmt.Sprintf("👋 Добро пожаловать в *%s*!\n\n"+
		"Мы делаем продающие лендинги под ключ. "+
		"Нажмите «🎯 Бесплатный дизайн-макет», и мы подготовим макет вашего сайта бесплатно.", studio)
}

const priceList = "💰 *Цены и услуги*\n\n" +
	"• Лендинг под ключ: от 5 000 ₽\n" +
	"• Дизайн-макет первого экрана: бесплатно\n" +
	"• Подключение форм и аналитики: от 1 500 ₽\n" +
	"• Поддержка сайта: от 2 000 ₽ в месяц\n\n" +
	"Оставить заявку: /order"

func helpMessage(studio string) string {
	return fmt.Sprintf("📞 *%s*\n\n"+
		"/order оформить заявку\n"+
		"/status статус последней заявки\n"+
		"/price цены и услуги\n"+
		"/portfolio примеры работ\n"+
		"/cancel отменить текущее действие\n\n"+
		"По любым вопросам пишите менеджеру после оформления заявки.", studio)
}

const faqMessage = "❓ *Частые вопросы*\n\n" +
	"*Сколько делается лендинг?*\nОбычно от 3 до 7 рабочих дней.\n\n" +
	"*Нужны ли мне тексты и фото?*\nНет, поможем подготовить материалы.\n\n" +
	"*Макет правда бесплатный?*\nДа, вы ничего не платите до утверждения дизайна."

const (
	portfolioIntro = "📁 *Наше портфолио*\n\nПримеры лендингов, которые мы сделали для клиентов."
	portfolioHint  = "Примеры наших работ: /portfolio"
	cabinetMessage = "Проверить статус заявки: /status\nВаши заявки отображаются здесь."
	noOrdersYet    = "У вас пока нет заявок. Оформить заявку: /order"
)
