package usecases

import (
	"github.com/abelzeko/plant-manager/internal/schedule"
)

// messages holds the few user-facing sentences produced by the use case layer
type messages struct {
	Greeting        string
	GreetingNoName  string
	Banner          string
	BannerOverdue   string
	WaterAt         string
	Reminder        string
	ReminderNoName  string
	NoPlants        string
	UpcomingHeading string
}

var catalogue = map[schedule.Locale]messages{
	schedule.English: {
		Greeting:        "Hello, %s",
		GreetingNoName:  "Hello",
		Banner:          "Don't forget to water the %s %s.",
		BannerOverdue:   "The %s needs water now (%s).",
		WaterAt:         "Water at %s",
		Reminder:        "Hey %s, time to water your %s! 💧",
		ReminderNoName:  "Time to water your %s! 💧",
		NoPlants:        "You are not growing any plants yet. Use /catalog to pick one.",
		UpcomingHeading: "Upcoming waterings",
	},
	schedule.Portuguese: {
		Greeting:        "Olá, %s",
		GreetingNoName:  "Olá",
		Banner:          "Não esqueça de regar a %s %s.",
		BannerOverdue:   "A %s precisa ser regada agora (%s).",
		WaterAt:         "Regar às %s",
		Reminder:        "Ei %s, está na hora de regar a sua %s! 💧",
		ReminderNoName:  "Está na hora de regar a sua %s! 💧",
		NoPlants:        "Você ainda não cultiva nenhuma planta. Use /catalog para escolher uma.",
		UpcomingHeading: "Próximas regadas",
	},
}

func messagesFor(locale schedule.Locale) messages {
	if m, ok := catalogue[locale]; ok {
		return m
	}
	return catalogue[schedule.English]
}
