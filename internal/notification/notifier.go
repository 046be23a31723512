// Package notification delivers trading alerts (emitted signals, closed
// trades, pipeline failures) to external channels: Telegram, generic
// webhooks, or the process log.
package notification

import (
	"context"
	"fmt"
	"log"

	"fvgtrader/internal/model"
	"fvgtrader/internal/portfolio"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one notification to be delivered.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface all delivery backends satisfy.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// FromSignal formats an emitted trading signal as an alert.
func FromSignal(sig model.TradingSignal) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("%s %s signal", sig.Symbol, sig.Direction),
		Message: fmt.Sprintf("zone %s (%s) entry %.5f now %.5f strength %.2f confidence %.2f",
			sig.ZoneID, sig.Timeframe, sig.EntryPrice, sig.CurrentPrice, sig.Strength, sig.Confidence),
	}
}

// FromClosedTrade formats a closed trade as an alert. Losses warn.
func FromClosedTrade(c portfolio.Closed) Alert {
	level := AlertInfo
	if !c.Won {
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: fmt.Sprintf("%s trade closed: %s", c.Position.Symbol, c.Reason),
		Message: fmt.Sprintf("qty %.2f avg %.5f exit %.5f pnl %+.2f",
			c.Position.Qty, c.Position.AvgPrice, c.ExitPx, c.PnL),
	}
}

// Fanout sends an alert to every notifier, logging failures instead of
// propagating them; alerting never takes the pipeline down.
func Fanout(ctx context.Context, notifiers []Notifier, alert Alert) {
	for _, n := range notifiers {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] delivery failed: %v", err)
		}
	}
}

// LogNotifier logs alerts; the development default.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}
