package bot

// Callback-данные кнопок квиза
const (
	businessPrefix = "quiz_business_"
	goalPrefix     = "quiz_goal_"

	confirmSubmit = "order_confirm_submit"
	confirmCancel = "order_confirm_cancel"
)

type option struct {
	Label string
	Data  string
}

var businessOptions = []option{
	{"👔 Услуги", "quiz_business_services"},
	{"🛍️ Товары", "quiz_business_goods"},
	{"🎓 Инфобизнес", "quiz_business_infobiz"},
	{"📱 Другое", "quiz_business_other"},
}

var goalOptions = []option{
	{"📋 Заявки", "quiz_goal_leads"},
	{"🛒 Продажи", "quiz_goal_sales"},
	{"📢 Информирование", "quiz_goal_info"},
	{"👤 Резюме", "quiz_goal_resume"},
}

// Сроки и материалы в квизе не спрашиваются, подписи оставлены для старых кнопок.
var quizLabels = map[string]string{
	"quiz_business_services": "Услуги",
	"quiz_business_goods":    "Товары",
	"quiz_business_infobiz":  "Инфобизнес",
	"quiz_business_other":    "Другое",
	"quiz_goal_leads":        "Заявки",
	"quiz_goal_sales":        "Продажи",
	"quiz_goal_info":         "Информирование",
	"quiz_goal_resume":       "Резюме",
	"quiz_timeline_urgent":   "Срочно (1-3 дня)",
	"quiz_timeline_week":     "Неделя",
	"quiz_timeline_month":    "Месяц",
	"quiz_timeline_any":      "Не важно",
	"quiz_materials_full":    "Текст + фото",
	"quiz_materials_text":    "Только текст",
	"quiz_materials_none":    "Нет",
	"quiz_materials_help":    "Нужна помощь",
}

// LabelFor переводит callback-данные кнопки в подпись для заявки.
// Неизвестные данные возвращаются как есть.
func LabelFor(data string) string {
	if label, ok := quizLabels[data]; ok {
		return label
	}
	return data
}

var statusLabels = map[string]string{
	"new":         "🆕 Новая",
	"in_progress": "🔄 В работе",
	"done":        "✅ Выполнена",
	"cancelled":   "❌ Отменена",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}
