// Package simulate builds realistic webhook envelopes for exercising a
// running notify service.
package simulate

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/amesa-systems/amesa-notify/cli/internal/client"
)

const (
	sourceAuth    = "amesa.auth"
	sourceLottery = "amesa.lottery"
	sourcePayment = "amesa.payment"
	sourceContent = "amesa.content"
)

type generator struct {
	source string
	detail func(f *gofakeit.Faker) map[string]interface{}
}

var generators = map[string]generator{
	"UserCreated": {sourceAuth, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":    f.UUID(),
			"email":     f.Email(),
			"username":  f.Username(),
			"firstName": f.FirstName(),
			"lastName":  f.LastName(),
		}
	}},
	"PasswordResetRequested": {sourceAuth, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":     f.UUID(),
			"email":      f.Email(),
			"resetToken": f.LetterN(32),
		}
	}},
	"PasswordChanged": {sourceAuth, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":        f.UUID(),
			"email":         f.Email(),
			"changedByUser": true,
			"ipAddress":     f.IPv4Address(),
		}
	}},
	"NewDeviceLogin": {sourceAuth, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":     f.UUID(),
			"email":      f.Email(),
			"deviceId":   f.UUID(),
			"deviceName": f.AppName(),
			"ipAddress":  f.IPv4Address(),
			"userAgent":  f.UserAgent(),
			"location":   f.City(),
		}
	}},
	"SuspiciousActivity": {sourceAuth, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":       f.UUID(),
			"email":        f.Email(),
			"activityType": f.RandomString([]string{"credential_stuffing", "impossible_travel", "token_reuse"}),
			"description":  f.Sentence(8),
			"ipAddress":    f.IPv4Address(),
			"severity":     f.RandomString([]string{"low", "medium", "high"}),
		}
	}},
	"TicketPurchased": {sourceLottery, func(f *gofakeit.Faker) map[string]interface{} {
		count := f.Number(1, 5)
		numbers := make([]string, count)
		for i := range numbers {
			numbers[i] = fmt.Sprintf("%06d", f.Number(0, 999999))
		}
		return map[string]interface{}{
			"userId":        f.UUID(),
			"houseId":       f.UUID(),
			"ticketCount":   count,
			"ticketNumbers": numbers,
		}
	}},
	"LotteryDrawWinnerSelected": {sourceLottery, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"drawId":              f.UUID(),
			"houseId":             f.UUID(),
			"winnerTicketId":      f.UUID(),
			"winnerUserId":        f.UUID(),
			"winningTicketNumber": f.Number(1, 999999),
			"houseTitle":          f.Street() + " " + f.City(),
			"prizeValue":          f.Price(100000, 2000000),
		}
	}},
	"FavoriteAdded": {sourceLottery, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"userId":     f.UUID(),
			"houseId":    f.UUID(),
			"houseTitle": f.Street(),
		}
	}},
	"PaymentCompleted": {sourcePayment, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"paymentId":     f.UUID(),
			"transactionId": f.UUID(),
			"userId":        f.UUID(),
			"amount":        f.Price(5, 500),
			"currency":      f.CurrencyShort(),
			"paymentMethod": f.RandomString([]string{"card", "paypal", "bank_transfer"}),
		}
	}},
	"PaymentFailed": {sourcePayment, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"paymentId":     f.UUID(),
			"userId":        f.UUID(),
			"amount":        f.Price(5, 500),
			"failureReason": f.RandomString([]string{"card_declined", "insufficient_funds", "expired_card"}),
		}
	}},
	"SystemAnnouncement": {sourceContent, func(f *gofakeit.Faker) map[string]interface{} {
		return map[string]interface{}{
			"announcementId": f.UUID(),
			"title":          f.Sentence(4),
			"message":        f.Sentence(12),
			"severity":       "info",
			"targetUserIds":  []string{f.UUID(), f.UUID()},
		}
	}},
}

// Types lists the detail types that can be simulated, sorted.
func Types() []string {
	out := make([]string, 0, len(generators))
	for t := range generators {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SourceFor returns the source that emits detailType.
func SourceFor(detailType string) (string, bool) {
	g, ok := generators[detailType]
	return g.source, ok
}

type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// New returns a Generator. A zero seed picks a random one.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: time.Now}
}

// Envelope builds one envelope for detailType with a fresh id.
func (g *Generator) Envelope(detailType string) (*client.Envelope, error) {
	gen, ok := generators[detailType]
	if !ok {
		return nil, fmt.Errorf("no simulator for detail type %q", detailType)
	}

	detail, err := json.Marshal(gen.detail(g.faker))
	if err != nil {
		return nil, err
	}

	return &client.Envelope{
		Version:    "0",
		ID:         g.faker.UUID(),
		DetailType: detailType,
		Source:     gen.source,
		Account:    fmt.Sprintf("%012d", g.faker.Number(0, 999999999)),
		Time:       g.now().UTC(),
		Region:     "eu-north-1",
		Detail:     detail,
	}, nil
}

// Batch builds count envelopes for detailType. An empty detailType picks a
// random simulated type per envelope.
func (g *Generator) Batch(detailType string, count int) ([]*client.Envelope, error) {
	types := Types()
	out := make([]*client.Envelope, 0, count)
	for i := 0; i < count; i++ {
		t := detailType
		if t == "" {
			t = types[g.faker.Number(0, len(types)-1)]
		}
		env, err := g.Envelope(t)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}
