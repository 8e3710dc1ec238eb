package notifiers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/authclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/bulk"
	"github.com/amesa-systems/amesa-notify/notify/internal/lotteryclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
)

type sendCall struct {
	RecipientID string
	Request     models.NotificationRequest
	Channels    []string
}

type mockOrchestrator struct {
	mu       sync.Mutex
	calls    []sendCall
	sendFunc func(ctx context.Context, recipientID string, req *models.NotificationRequest) error
}

func (m *mockOrchestrator) SendMultiChannel(ctx context.Context, recipientID string, req *models.NotificationRequest, channels []string) (*models.OrchestrationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sendCall{RecipientID: recipientID, Request: *req, Channels: channels})
	m.mu.Unlock()
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, recipientID, req); err != nil {
			return nil, err
		}
	}
	return &models.OrchestrationResult{NotificationID: "n-" + recipientID, SuccessCount: len(channels)}, nil
}

func (m *mockOrchestrator) GetDeliveryStatus(context.Context, string) ([]models.DeliveryStatus, error) {
	return nil, nil
}

func (m *mockOrchestrator) ResendFailed(context.Context, string) (bool, error) {
	return false, nil
}

func (m *mockOrchestrator) Calls() []sendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sendCall(nil), m.calls...)
}

type emailCall struct {
	Kind  string
	To    string
	Value string
}

type mockEmail struct {
	mu    sync.Mutex
	calls []emailCall
	err   error
}

func (m *mockEmail) record(kind, to, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, emailCall{Kind: kind, To: to, Value: value})
	return m.err
}

func (m *mockEmail) SendWelcome(_ context.Context, email, name string) error {
	return m.record("welcome", email, name)
}

func (m *mockEmail) SendVerification(_ context.Context, email, token string) error {
	return m.record("verification", email, token)
}

func (m *mockEmail) SendPasswordReset(_ context.Context, email, token string) error {
	return m.record("reset", email, token)
}

func (m *mockEmail) SendLotteryWinner(_ context.Context, email, _, houseTitle, _ string) error {
	return m.record("winner", email, houseTitle)
}

type mockLottery struct {
	participantsFunc func(ctx context.Context, drawID string) ([]string, error)
	houseFunc        func(ctx context.Context, houseID string) (*lotteryclient.HouseInfo, error)
	creatorFunc      func(ctx context.Context, houseID string) (string, error)
	favoritesFunc    func(ctx context.Context, houseID string) ([]string, error)
}

func (m *mockLottery) GetDrawParticipants(ctx context.Context, drawID string) ([]string, error) {
	if m.participantsFunc == nil {
		return nil, nil
	}
	return m.participantsFunc(ctx, drawID)
}

func (m *mockLottery) GetHouseInfo(ctx context.Context, houseID string) (*lotteryclient.HouseInfo, error) {
	if m.houseFunc == nil {
		return nil, nil
	}
	return m.houseFunc(ctx, houseID)
}

func (m *mockLottery) GetHouseCreatorID(ctx context.Context, houseID string) (string, error) {
	if m.creatorFunc == nil {
		return "", nil
	}
	return m.creatorFunc(ctx, houseID)
}

func (m *mockLottery) GetHouseFavoriteUserIDs(ctx context.Context, houseID string) ([]string, error) {
	if m.favoritesFunc == nil {
		return nil, nil
	}
	return m.favoritesFunc(ctx, houseID)
}

type mockAuth struct {
	userFunc    func(ctx context.Context, userID string) (*authclient.UserInfo, error)
	activeFunc  func(ctx context.Context) ([]string, error)
	segmentFunc func(ctx context.Context, segment string) ([]string, error)
}

func (m *mockAuth) GetUserInfo(ctx context.Context, userID string) (*authclient.UserInfo, error) {
	if m.userFunc == nil {
		return nil, nil
	}
	return m.userFunc(ctx, userID)
}

func (m *mockAuth) GetActiveUserIDs(ctx context.Context) ([]string, error) {
	if m.activeFunc == nil {
		return nil, nil
	}
	return m.activeFunc(ctx)
}

func (m *mockAuth) GetUserIDsBySegment(ctx context.Context, segment string) ([]string, error) {
	if m.segmentFunc == nil {
		return nil, nil
	}
	return m.segmentFunc(ctx, segment)
}

type fixture struct {
	orchestrator *mockOrchestrator
	email        *mockEmail
	lottery      *mockLottery
	auth         *mockAuth
	router       *router.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orchestrator: &mockOrchestrator{},
		email:        &mockEmail{},
		lottery:      &mockLottery{},
		auth:         &mockAuth{},
		router:       router.New(logging.Discard()),
	}
	RegisterAll(f.router, &Scope{
		Email:        f.email,
		Orchestrator: f.orchestrator,
		Lottery:      f.lottery,
		Auth:         f.auth,
		Bulk:         bulk.New(bulk.DefaultOptions(), logging.Discard()),
		Logger:       logging.Discard(),
	})
	return f
}

func (f *fixture) route(t *testing.T, ctx context.Context, detailType string, detail any) error {
	t.Helper()
	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal detail: %v", err)
	}
	env := &models.Envelope{ID: "evt-test", DetailType: detailType, Source: "amesa.test", Detail: raw}
	handled, err := f.router.Route(ctx, env)
	if !handled && err == nil {
		t.Fatalf("%s was not handled", detailType)
	}
	return err
}
