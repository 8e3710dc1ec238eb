package events

import "time"

type TicketPurchasedEvent struct {
	UserID        string   `json:"userId"`
	HouseID       string   `json:"houseId"`
	TicketCount   int      `json:"ticketCount"`
	TicketNumbers []string `json:"ticketNumbers"`
}

type TicketRefundedEvent struct {
	UserID       string  `json:"userId"`
	HouseID      string  `json:"houseId"`
	TicketID     string  `json:"ticketId"`
	TicketNumber int     `json:"ticketNumber"`
	RefundAmount float64 `json:"refundAmount"`
	RefundReason string  `json:"refundReason"`
}

type LotteryDrawWinnerSelectedEvent struct {
	DrawID              string   `json:"drawId"`
	HouseID             string   `json:"houseId"`
	WinnerTicketID      string   `json:"winnerTicketId"`
	WinnerUserID        string   `json:"winnerUserId"`
	WinningTicketNumber int      `json:"winningTicketNumber"`
	HouseTitle          string   `json:"houseTitle,omitempty"`
	PrizeValue          *float64 `json:"prizeValue,omitempty"`
	PrizeDescription    string   `json:"prizeDescription,omitempty"`
}

type LotteryDrawCompletedEvent struct {
	DrawID       string    `json:"drawId"`
	HouseID      string    `json:"houseId"`
	DrawDate     time.Time `json:"drawDate"`
	TotalTickets int       `json:"totalTickets"`
}

type LotteryDrawStartingEvent struct {
	DrawID            string    `json:"drawId"`
	HouseID           string    `json:"houseId"`
	HouseTitle        string    `json:"houseTitle"`
	DrawStartTime     time.Time `json:"drawStartTime"`
	MinutesUntilStart int       `json:"minutesUntilStart"`
}

type LotteryDrawStartedEvent struct {
	DrawID     string    `json:"drawId"`
	HouseID    string    `json:"houseId"`
	HouseTitle string    `json:"houseTitle"`
	StartedAt  time.Time `json:"startedAt"`
}

type LotteryEndedEvent struct {
	DrawID             string    `json:"drawId"`
	HouseID            string    `json:"houseId"`
	HouseTitle         string    `json:"houseTitle"`
	EndedAt            time.Time `json:"endedAt"`
	WinnerUserID       string    `json:"winnerUserId,omitempty"`
	WinnerName         string    `json:"winnerName,omitempty"`
	WasCancelled       bool      `json:"wasCancelled"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
}

type LotteryResultCreatedEvent struct {
	ResultID       string `json:"resultId"`
	DrawID         string `json:"drawId"`
	WinnerUserID   string `json:"winnerUserId"`
	WinnerTicketID string `json:"winnerTicketId"`
}

type PrizeClaimedEvent struct {
	ResultID  string    `json:"resultId"`
	UserID    string    `json:"userId"`
	ClaimedAt time.Time `json:"claimedAt"`
}

type PrizeDeliveredEvent struct {
	ResultID    string    `json:"resultId"`
	UserID      string    `json:"userId"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

type HouseCreatedEvent struct {
	HouseID         string  `json:"houseId"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	CreatedByUserID string  `json:"createdByUserId"`
}

type HouseUpdatedEvent struct {
	HouseID string   `json:"houseId"`
	Title   string   `json:"title,omitempty"`
	Price   *float64 `json:"price,omitempty"`
}

type FavoriteAddedEvent struct {
	UserID     string `json:"userId"`
	HouseID    string `json:"houseId"`
	HouseTitle string `json:"houseTitle"`
}

type FavoriteRemovedEvent struct {
	UserID     string `json:"userId"`
	HouseID    string `json:"houseId"`
	HouseTitle string `json:"houseTitle"`
}
