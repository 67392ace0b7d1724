package domain

// Caption is one timed subtitle line of a guided track.
type Caption struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// CaptionAt returns the caption covering the given playback second.
func CaptionAt(captions []Caption, seconds int) (Caption, bool) {
	t := float64(seconds)
	for _, c := range captions {
		if t >= c.Start && t < c.End {
			return c, true
		}
	}
	return Caption{}, false
}

// Quote is the pair of lines shown beside the countdown.
type Quote struct {
	Left  [2]string
	Right string
}

// QuoteRotationSeconds is how long each quote stays on screen.
const QuoteRotationSeconds = 20

var quotes = []Quote{
	{Left: [2]string{"不思善恶", "本来面目"}, Right: "一期一会"},
	{Left: [2]string{"心无挂碍", "远离颠倒"}, Right: "万法归一"},
	{Left: [2]string{"观心如镜", "照见五蕴"}, Right: "大愿同行"},
	{Left: [2]string{"看山是山", "见性成佛"}, Right: "明心见性"},
	{Left: [2]string{"行到水穷", "坐看云起"}, Right: "清净无为"},
	{Left: [2]string{"应无所住", "而生其心"}, Right: "随缘自在"},
	{Left: [2]string{"空即是色", "色即是空"}, Right: "般若智慧"},
	{Left: [2]string{"放下执着", "当下即是"}, Right: "本自清净"},
	{Left: [2]string{"静观自得", "妙悟天真"}, Right: "无住生心"},
	{Left: [2]string{"身心安住", "自性圆满"}, Right: "觉悟本心"},
	{Left: [2]string{"一念不生", "万法归宗"}, Right: "如如不动"},
	{Left: [2]string{"直指人心", "见性成佛"}, Right: "顿悟菩提"},
}

// QuoteAt returns the quote shown for a countdown value. Overtime keeps the
// first quote.
func QuoteAt(countdown int) Quote {
	if countdown < 0 {
		countdown = 0
	}
	return quotes[(countdown/QuoteRotationSeconds)%len(quotes)]
}
