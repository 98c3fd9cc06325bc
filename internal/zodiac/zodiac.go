package zodiac

// Sign is a lowercase zodiac sign name, e.g. "leo".
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// SignInfo describes a sign for display purposes.
type SignInfo struct {
	Name  Sign   `json:"name"`
	Title string `json:"title"`
	Emoji string `json:"emoji"`
}

// Signs lists all twelve signs in calendar order.
var Signs = []SignInfo{
	{Aries, "Aries", "♈"},
	{Taurus, "Taurus", "♉"},
	{Gemini, "Gemini", "♊"},
	{Cancer, "Cancer", "♋"},
	{Leo, "Leo", "♌"},
	{Virgo, "Virgo", "♍"},
	{Libra, "Libra", "♎"},
	{Scorpio, "Scorpio", "♏"},
	{Sagittarius, "Sagittarius", "♐"},
	{Capricorn, "Capricorn", "♑"},
	{Aquarius, "Aquarius", "♒"},
	{Pisces, "Pisces", "♓"},
}

var infoByName = func() map[Sign]SignInfo {
	m := make(map[Sign]SignInfo, len(Signs))
	for _, s := range Signs {
		m[s.Name] = s
	}
	return m
}()

// Valid reports whether s names one of the twelve signs.
func Valid(s Sign) bool {
	_, ok := infoByName[s]
	return ok
}

// Info returns display data for a sign. ok is false for unknown signs.
func Info(s Sign) (SignInfo, bool) {
	info, ok := infoByName[s]
	return info, ok
}
