package security

import (
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/logging"
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	destructiveKeywords = []string{
		"delete", "remove", "удалить", "удаление",
		"cancel", "отменить", "отмена",
		"clear", "очистить",
		"reset", "сброс",
		"trash", "корзина",
		"unsubscribe", "deactivate",
	}

	paymentURLKeywords = []string{
		"payment", "pay", "checkout", "оплата", "платеж",
		"order", "заказ", "purchase", "покупка", "billing",
	}

	confirmKeywords = []string{
		"submit", "confirm", "pay", "оплатить", "подтвердить",
		"order", "заказать", "buy", "купить", "place",
	}

	submitKeywords = []string{
		"submit", "send", "sign up", "register", "отправить", "подтвердить",
	}
)

// Assessor rates actions by keyword matching on the target's label and
// the page URL. It never blocks; the agent only logs the rating.
type Assessor struct {
	logger *logrus.Logger
}

func NewAssessor(logger *logrus.Logger) *Assessor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assessor{logger: logger}
}

func (s *Assessor) Assess(ctx context.Context, action entities.Action, pageURL string, label string) entities.RiskLevel {
	if action.IsTerminal() {
		return entities.RiskLow
	}

	level := s.rate(action, strings.ToLower(pageURL), strings.ToLower(label))
	s.logger.WithFields(logrus.Fields{
		"action": action.Type,
		"label":  label,
		"risk":   level,
	}).Debug("Assessed action")
	return level
}

func (s *Assessor) rate(action entities.Action, lowerURL, lowerLabel string) entities.RiskLevel {
	onPaymentPage := containsAny(lowerURL, paymentURLKeywords)

	switch action.Type {
	case entities.ActionClick:
		if containsAny(lowerLabel, destructiveKeywords) {
			return entities.RiskHigh
		}
		if onPaymentPage && containsAny(lowerLabel, confirmKeywords) {
			return entities.RiskHigh
		}
		if containsAny(lowerLabel, submitKeywords) {
			return entities.RiskMedium
		}

	case entities.ActionTypeSubmit:
		// typing submits a form; on a payment page that may place an order
		if onPaymentPage {
			return entities.RiskMedium
		}
	}

	return entities.RiskLow
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

var _ interfaces.RiskAssessor = (*Assessor)(nil)
