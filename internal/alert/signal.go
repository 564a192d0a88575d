package alert

import (
	"fmt"
	"strings"
	"time"
)

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Signal is one fired spike alert, ready for formatting and delivery.
type Signal struct {
	Symbol       string    `json:"symbol"`
	Exchange     string    `json:"exchange"`
	VolumeRatio  float64   `json:"volume_ratio"`
	Delta        float64   `json:"delta"`
	DeltaPercent float64   `json:"delta_percent"`
	Direction    Direction `json:"direction"`
	Time         time.Time `json:"time"`
}

// Message renders the human-readable notification text (Telegram HTML).
func (s Signal) Message() string {
	arrow := "🟢 UP"
	if s.Direction == Bearish {
		arrow = "🔴 DOWN"
	}
	return fmt.Sprintf(
		"🚨 <b>%s ALERT - %s</b> 🚨\n"+
			"📊 Exchange: <b>%s</b>\n"+
			"💰 Spike: <b>%.1fx</b>\n"+
			"📈 Delta: <b>%+.1f</b> (%+.1f%%)\n"+
			"🎯 Direction: %s\n"+
			"⏰ Time: %s",
		strings.ToUpper(string(s.Direction)), s.Symbol,
		s.Exchange,
		s.VolumeRatio,
		s.Delta, s.DeltaPercent,
		arrow,
		s.Time.Format("15:04:05"),
	)
}
