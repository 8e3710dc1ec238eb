package notifiers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

const (
	defaultHouseTitle = "House"
	maxListedTickets  = 5
)

func (s *Scope) ticketPurchased(ctx context.Context, e events.TicketPurchasedEvent) error {
	noun := "tickets"
	if e.TicketCount == 1 {
		noun = "ticket"
	}
	message := fmt.Sprintf("You've successfully purchased %d %s for the lottery!", e.TicketCount, noun)
	if len(e.TicketNumbers) > 0 {
		listed := e.TicketNumbers
		if len(listed) > maxListedTickets {
			listed = listed[:maxListedTickets]
		}
		numbers := strings.Join(listed, ", ")
		if extra := len(e.TicketNumbers) - maxListedTickets; extra > 0 {
			numbers += fmt.Sprintf(" and %d more", extra)
		}
		message += " Your ticket numbers: " + numbers
	}

	req := newRequest(models.TypeTicketPurchased, "Tickets Purchased", message)
	req.Data = map[string]interface{}{
		"houseId":       e.HouseID,
		"ticketCount":   e.TicketCount,
		"ticketNumbers": append([]string(nil), e.TicketNumbers...),
	}
	return s.send(ctx, e.UserID, req, models.DefaultChannels()...)
}

func (s *Scope) ticketRefunded(ctx context.Context, e events.TicketRefundedEvent) error {
	req := newRequest(models.TypeTicketRefunded, "Ticket Refunded",
		fmt.Sprintf("Your ticket #%d has been refunded. Amount: $%.2f. Reason: %s", e.TicketNumber, e.RefundAmount, e.RefundReason))
	req.Data = map[string]interface{}{"houseId": e.HouseID, "ticketId": e.TicketID}
	return s.send(ctx, e.UserID, req)
}

// drawWinnerSelected emails the winner when an address is known, then
// sends the multi-channel notice. Only the orchestrator call decides the
// outcome.
func (s *Scope) drawWinnerSelected(ctx context.Context, e events.LotteryDrawWinnerSelectedEvent) error {
	houseTitle := orDefault(e.HouseTitle, defaultHouseTitle)
	ticket := strconv.Itoa(e.WinningTicketNumber)

	user, err := s.Auth.GetUserInfo(ctx, e.WinnerUserID)
	if err != nil {
		s.Logger.WarnContext(ctx, "winner lookup failed", logging.UserID(e.WinnerUserID), logging.Error(err))
	}
	if user != nil && user.Email != "" {
		if err := s.Email.SendLotteryWinner(ctx, user.Email, user.DisplayName(), houseTitle, ticket); err != nil {
			s.Logger.ErrorContext(ctx, "winner email failed", logging.UserID(e.WinnerUserID), logging.Error(err))
		}
	}

	req := newRequest(models.TypeLotteryWinnerSelected, "🎉 Congratulations! You Won!",
		fmt.Sprintf("You won the lottery for %s with ticket %s!", houseTitle, ticket))
	req.Data = map[string]interface{}{
		"drawId":       e.DrawID,
		"houseId":      e.HouseID,
		"houseTitle":   houseTitle,
		"ticketNumber": ticket,
	}
	if e.PrizeValue != nil {
		req.Data["prizeValue"] = *e.PrizeValue
	}
	return s.send(ctx, e.WinnerUserID, req, models.ChannelEmail, models.ChannelWebPush, models.ChannelPush)
}

func (s *Scope) drawCompleted(ctx context.Context, e events.LotteryDrawCompletedEvent) error {
	participants, err := s.Lottery.GetDrawParticipants(ctx, e.DrawID)
	if err != nil {
		return fmt.Errorf("draw participants: %w", err)
	}
	if len(FilterRecipients(participants)) == 0 {
		s.Logger.InfoContext(ctx, "draw has no participants", "draw_id", e.DrawID)
		return nil
	}

	houseTitle := s.houseTitle(ctx, e.HouseID, "")
	message := fmt.Sprintf("The lottery draw for '%s' has been completed. Results will be available soon!", houseTitle)
	return s.fanOut(ctx, events.LotteryDrawCompleted, participants, func(string) *models.NotificationRequest {
		req := newRequest(models.TypeLotteryDrawCompleted, "Draw Completed", message)
		req.Data = map[string]interface{}{"drawId": e.DrawID, "houseId": e.HouseID}
		return req
	})
}

func (s *Scope) drawStarting(ctx context.Context, e events.LotteryDrawStartingEvent) error {
	message := fmt.Sprintf("The lottery draw for '%s' is starting in %d minutes!", e.HouseTitle, e.MinutesUntilStart)
	return s.notifyParticipants(ctx, events.LotteryDrawStarting, e.DrawID, func(string) *models.NotificationRequest {
		return newRequest(models.TypeLotteryDrawStarting, "Draw Starting Soon", message)
	})
}

func (s *Scope) drawStarted(ctx context.Context, e events.LotteryDrawStartedEvent) error {
	message := fmt.Sprintf("The lottery draw for '%s' has started! Results will be available soon.", e.HouseTitle)
	return s.notifyParticipants(ctx, events.LotteryDrawStarted, e.DrawID, func(string) *models.NotificationRequest {
		return newRequest(models.TypeLotteryDrawStarted, "Draw Started", message)
	})
}

func (s *Scope) lotteryEnded(ctx context.Context, e events.LotteryEndedEvent) error {
	message := lotteryEndedMessage(e)
	return s.notifyParticipants(ctx, events.LotteryEnded, e.DrawID, func(string) *models.NotificationRequest {
		req := newRequest(models.TypeLotteryEnded, "Draw Ended", message)
		req.Data = map[string]interface{}{"drawId": e.DrawID, "wasCancelled": e.WasCancelled}
		return req
	})
}

func lotteryEndedMessage(e events.LotteryEndedEvent) string {
	switch {
	case e.WasCancelled:
		return fmt.Sprintf("The lottery draw for '%s' has been cancelled. Reason: %s", e.HouseTitle, e.CancellationReason)
	case e.WinnerUserID != "":
		return fmt.Sprintf("The lottery draw for '%s' has ended. Winner: %s", e.HouseTitle, orDefault(e.WinnerName, "Selected"))
	default:
		return fmt.Sprintf("The lottery draw for '%s' has ended.", e.HouseTitle)
	}
}

func (s *Scope) notifyParticipants(ctx context.Context, name, drawID string, build func(string) *models.NotificationRequest) error {
	participants, err := s.Lottery.GetDrawParticipants(ctx, drawID)
	if err != nil {
		return fmt.Errorf("draw participants: %w", err)
	}
	return s.fanOut(ctx, name, participants, build)
}

func (s *Scope) lotteryResultCreated(ctx context.Context, e events.LotteryResultCreatedEvent) error {
	req := newRequest(models.TypeLotteryWinnerSelected, "Lottery Result Created",
		"A lottery result has been created for your winning ticket. Check your account for details.")
	req.Data = map[string]interface{}{"resultId": e.ResultID, "drawId": e.DrawID}
	return s.send(ctx, e.WinnerUserID, req)
}

func (s *Scope) prizeClaimed(ctx context.Context, e events.PrizeClaimedEvent) error {
	req := newRequest(models.TypeLotteryWinnerSelected, "Prize Claimed",
		fmt.Sprintf("Your prize has been claimed successfully on %s UTC.", e.ClaimedAt.UTC().Format(timeLayout)))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) prizeDelivered(ctx context.Context, e events.PrizeDeliveredEvent) error {
	req := newRequest(models.TypeLotteryWinnerSelected, "Prize Delivered",
		fmt.Sprintf("Your prize has been delivered successfully on %s UTC.", e.DeliveredAt.UTC().Format(timeLayout)))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) houseCreated(ctx context.Context, e events.HouseCreatedEvent) error {
	req := newRequest(models.TypeHouseCreated, "House Created Successfully",
		fmt.Sprintf("Your lottery house '%s' has been created successfully with a price of $%.2f.", e.Title, e.Price))
	req.Data = map[string]interface{}{"houseId": e.HouseID}
	return s.send(ctx, e.CreatedByUserID, req)
}

// houseUpdated tells the creator, then everyone who favorited the house.
func (s *Scope) houseUpdated(ctx context.Context, e events.HouseUpdatedEvent) error {
	creatorID, err := s.Lottery.GetHouseCreatorID(ctx, e.HouseID)
	if err != nil {
		return fmt.Errorf("house creator: %w", err)
	}
	if creatorID == "" {
		s.Logger.InfoContext(ctx, "house has no known creator", "house_id", e.HouseID)
		return nil
	}
	houseTitle := s.houseTitle(ctx, e.HouseID, e.Title)

	creatorReq := newRequest(models.TypeHouseUpdated, "House Updated",
		fmt.Sprintf("Your lottery house '%s' has been updated.", houseTitle))
	if err := s.send(ctx, creatorID, creatorReq); err != nil {
		return err
	}

	favorites, err := s.Lottery.GetHouseFavoriteUserIDs(ctx, e.HouseID)
	if err != nil {
		return fmt.Errorf("house favorites: %w", err)
	}
	message := fmt.Sprintf("'%s' has been updated.", houseTitle)
	return s.fanOut(ctx, events.HouseUpdated, favorites, func(string) *models.NotificationRequest {
		req := newRequest(models.TypeHouseUpdated, "Favorite House Updated", message)
		req.Data = map[string]interface{}{"houseId": e.HouseID}
		return req
	})
}

func (s *Scope) favoriteAdded(ctx context.Context, e events.FavoriteAddedEvent) error {
	req := newRequest(models.TypeFavoriteAdded, "House Added to Favorites",
		fmt.Sprintf("'%s' has been added to your favorites.", e.HouseTitle))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) favoriteRemoved(ctx context.Context, e events.FavoriteRemovedEvent) error {
	req := newRequest(models.TypeFavoriteRemoved, "House Removed from Favorites",
		fmt.Sprintf("'%s' has been removed from your favorites.", e.HouseTitle))
	return s.send(ctx, e.UserID, req)
}

// houseTitle resolves a display title, falling back to fallback and then
// to "House". Lookup failures are logged, not returned.
func (s *Scope) houseTitle(ctx context.Context, houseID, fallback string) string {
	house, err := s.Lottery.GetHouseInfo(ctx, houseID)
	if err != nil {
		s.Logger.WarnContext(ctx, "house lookup failed", "house_id", houseID, logging.Error(err))
	}
	if house != nil && house.Title != "" {
		return house.Title
	}
	return orDefault(fallback, defaultHouseTitle)
}
