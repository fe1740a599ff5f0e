package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRPayload is the JSON encoded into each ticket's QR code.
type QRPayload struct {
	TicketID   uint64 `json:"ticketId"`
	TicketCode string `json:"ticketCode"`
	UserID     uint64 `json:"userId"`
	EventName  string `json:"eventName"`
	EventDate  string `json:"eventDate"`
}

// RenderConfirmation builds the confirmation email for c with one QR code
// PNG attached per ticket.
func RenderConfirmation(c Confirmation) (Message, error) {
	var body strings.Builder
	if c.FromWaitlist {
		fmt.Fprintf(&body, "Good news! Tickets became available for %s and your waiting list request has been served.\n\n", c.EventName)
	} else {
		fmt.Fprintf(&body, "Your booking for %s is confirmed.\n\n", c.EventName)
	}
	fmt.Fprintf(&body, "Date: %s\nTickets: %d\n\n", c.EventDate.UTC().Format(time.RFC1123), len(c.Tickets))

	msg := Message{
		To:      c.UserEmail,
		Subject: fmt.Sprintf("Your tickets for %s", c.EventName),
	}
	for _, t := range c.Tickets {
		png, err := TicketQR(QRPayload{
			TicketID:   t.ID,
			TicketCode: t.Code,
			UserID:     c.UserID,
			EventName:  c.EventName,
			EventDate:  c.EventDate.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return Message{}, err
		}
		fmt.Fprintf(&body, "  #%d  %s\n", t.ID, t.Code)
		msg.Attachments = append(msg.Attachments, Attachment{
			Name: fmt.Sprintf("ticket-%d.png", t.ID),
			Data: png,
		})
	}
	body.WriteString("\nShow the attached QR codes at the entrance.\n")
	msg.Body = body.String()
	return msg, nil
}

// TicketQR encodes p as a PNG QR code.
func TicketQR(p QRPayload) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal qr payload")
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrapf(err, "encode qr for ticket %d", p.TicketID)
	}
	return png, nil
}

// ConfirmationSender is the Sink that renders and mails confirmations.
type ConfirmationSender struct {
	Mailer Mailer
}

func (s ConfirmationSender) Deliver(ctx context.Context, c Confirmation) error {
	msg, err := RenderConfirmation(c)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}
