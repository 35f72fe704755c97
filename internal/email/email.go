package email

import (
	"context"
	"fmt"

	"github.com/dkravets/airreserve/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s about %s for booking %s (%d passengers, total %d)\n",
		event.TravelerEmail, event.Type, event.ConfirmationCode, event.Passengers, event.TotalPrice)
	return nil
}
