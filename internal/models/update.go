package models

// Contact: контакт, которым пользователь поделился кнопкой «Отправить контакт».
type Contact struct {
	PhoneNumber string
	FirstName   string
	UserID      int64
}

// Update: входящее событие: текст, команда, нажатие inline-кнопки или контакт.
type Update struct {
	ChatID   int64
	UserID   int64
	Username string
	FullName string

	Text    string
	Command string // без слеша и @botname
	Args    string
	Contact *Contact

	CallbackID   string
	CallbackData string
	MessageID    int // сообщение, к которому прикреплена нажатая кнопка
	MessageText  string
}

func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

func (u Update) Profile() UserProfile {
	return UserProfile{UserID: u.UserID, Username: u.Username, FullName: u.FullName}
}

const ParseModeMarkdown = "Markdown"

// OutgoingMessage: исходящее сообщение. Если задан Channel (@username), ChatID игнорируется.
type OutgoingMessage struct {
	ChatID      int64
	Channel     string
	Text        string
	ParseMode   string
	ReplyMarkup interface{}
}
