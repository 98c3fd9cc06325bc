package zodiac

import (
	"fmt"
	"hash/fnv"
	"time"
)

var openings = []string{
	"The stars align in your favor today.",
	"A quiet shift in the cosmos works to your advantage.",
	"Today carries more weight than it first appears.",
	"The universe rewards patience today.",
	"An unexpected alignment opens a door for you.",
	"Today asks you to trust your first instinct.",
	"The day favors those who start early.",
	"A subtle tension in the sky sharpens your focus.",
}

var themes = []string{
	"A conversation you have been postponing will go better than expected.",
	"Money matters deserve a second look before evening.",
	"Someone close to you is waiting for a sign from you; give it.",
	"An old idea resurfaces and finally finds its moment.",
	"Let go of one small obligation and notice how much lighter the day feels.",
	"A stranger's remark holds more truth than it seems.",
	"What you finish today will matter more than what you start.",
	"Your energy peaks in the afternoon; plan the hard thing for then.",
	"Resist the urge to explain yourself twice.",
	"A small act of generosity returns to you before the week ends.",
}

var closings = []string{
	"Keep your plans flexible.",
	"Write down what you decide.",
	"Tomorrow builds on what you do today.",
	"Trust the slower path.",
	"Say less, observe more.",
	"Lucky hour: just after sunset.",
}

// Generate produces the horoscope text for a sign on a calendar date.
// It is a pure function: the same (sign, date) pair always yields the
// same non-empty text.
func Generate(sign Sign, date time.Time) string {
	info, ok := infoByName[sign]
	if !ok {
		info = SignInfo{Name: sign, Title: string(sign), Emoji: "✨"}
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s", sign, date.UTC().Format("2006-01-02"))
	seed := h.Sum64()

	opening := openings[seed%uint64(len(openings))]
	theme := themes[(seed/7)%uint64(len(themes))]
	closing := closings[(seed/91)%uint64(len(closings))]

	return fmt.Sprintf("%s %s, %s %s %s", info.Emoji, info.Title, opening, theme, closing)
}
