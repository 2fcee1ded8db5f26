package config

const (
	// Intake length rules, counted in characters after trimming.
	MinNameLength           = 3
	MinManualPositionLength = 2
	MinContactLength        = 5
	MinLocationLength       = 5
	MinDescriptionLength    = 10
	MaxDescriptionLength    = 1000

	// Rating bounds, inclusive.
	MinRating = 0
	MaxRating = 10

	// Intake steps shown in prompt headers.
	TotalSteps = 11

	DateLayout = "02.01.2006"
)

// Positions is the fixed list offered on the position step.
var Positions = []string{
	"🚛 Водитель тягача",
	"📦 Логист",
	"👔 Менеджер",
	"🔧 Механик",
	"📋 Диспетчер",
}

// ViolationCategories is the fixed list of violation tags.
var ViolationCategories = []string{
	"🚫 Хамство",
	"⛽ Слив топлива",
	"🕒 Прогул",
	"📦 Кража груза",
	"🚗 Нарушение ПДД",
	"🍺 Алкогольное опьянение",
	"🚭 Курение в салоне",
	"📱 Разговор по телефону",
	"⏰ Опоздание",
	"💰 Вымогательство",
}

// PositiveAspects is the fixed list of positive tags.
var PositiveAspects = []string{
	"😊 Вежливость",
	"⏰ Пунктуальность",
	"🛡️ Безопасность вождения",
	"🧹 Чистота транспорта",
	"💬 Хорошее общение",
	"🎯 Профессионализм",
	"🤝 Помощь пассажирам",
	"📋 Знание маршрута",
	"🔧 Техническая грамотность",
	"💪 Ответственность",
}

// Literal tokens recognised by the date and files steps, compared case-insensitively.
var (
	TodayTokens     = []string{"today", "сегодня"}
	YesterdayTokens = []string{"yesterday", "вчера"}
	DoneTokens      = []string{"done", "готово", "готов"}
)
