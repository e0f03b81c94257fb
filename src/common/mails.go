package common

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"tms/src/lib"
	awslib "tms/src/lib/aws"
	"tms/src/lib/mailer"
	"tms/src/models"
	"tms/src/types"
	"tms/src/utils"

	"github.com/tidwall/gjson"
)

func KafkaEmailsToSendConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("Received invalid json body. Aborting")
		return
	}
	from := gjson.Get(spayload, "from").String()
	fromName := gjson.Get(spayload, "from-name").String()
	subject := gjson.Get(spayload, "subject").String()
	log.Printf("from [%s] with subject: %s\n", from, subject)

	toArr := gjson.Get(spayload, "to").Array()
	to := make([]string, 0)
	for _, item := range toArr {
		to = append(to, item.String())
	}
	ccArr := gjson.Get(spayload, "cc").Array()
	cc := make([]string, 0)
	for _, item := range ccArr {
		cc = append(cc, item.String())
	}
	bccArr := gjson.Get(spayload, "bcc").Array()
	bcc := make([]string, 0)
	for _, item := range bccArr {
		bcc = append(bcc, item.String())
	}
	replyTo := gjson.Get(spayload, "reply-to").String()

	var body types.JSONB
	if err := json.Unmarshal([]byte(spayload), &body); err != nil {
		log.Printf("error deserializing json: %s\n", err.Error())
		return
	}
	go func() {
		input := &lib.SendMailInput{
			From:     from,
			FromName: fromName,
			To:       to,
			Cc:       cc,
			Bcc:      bcc,
			ReplyTo:  replyTo,
			Subject:  body["subject"].(string),
			Body:     body["body"].(string),
			Html:     body["html"].(bool),
		}
		deliverMail(input)
	}()
}

func EmailsToSendConsumer() {
	qname := utils.WithSuffix(os.Getenv("EMAIL_QUEUE"))
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(spayload string) {
		KafkaEmailsToSendConsumer(spayload)
	})
	c.Listen()
}

// deliverMail sends through SES in production and plain SMTP everywhere
// else, so local runs only need a mailhog-style sink.
func deliverMail(input *lib.SendMailInput) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == string(types.Production) {
		if err := awslib.SESSendMessage(input.From, input.To, input.Cc, input.Bcc, input.Subject, input.Body); err != nil {
			log.Printf("[MAILER] error sending email: %s\n", err.Error())
			return
		}
		log.Printf("[MAILER]: an email has been sent to %s\n", input.To)
		return
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[MAILER] error sending email: %s\n", err.Error())
		return
	}
	log.Printf("[MAILER]: an email has been sent to %s\n", input.To)
}

func NewMail(from string, to string, subject string, body string) error {
	return mailer.NewMailerMessage(&lib.SendMailInput{
		From:     from,
		FromName: "Tourism Marketplace",
		To:       []string{to},
		Subject:  subject,
		Body:     body,
		Html:     true,
	})
}

// SendBookingConfirmedEmail queues the confirmation email with the voucher
// link for the requester.
func SendBookingConfirmedEmail(booking *models.Booking, recipient *models.User) error {
	senderFrom := os.Getenv("SMTP_FROM")
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your booking <b>#%d</b> has been confirmed.</p><p>You can download your voucher here: %s/bookings/%d/voucher</p>",
		recipient.Name,
		booking.ID,
		os.Getenv("APP_HOST"),
		booking.ID,
	)
	return NewMail(senderFrom, recipient.Email, fmt.Sprintf("Booking #%d confirmed", booking.ID), body)
}

func SendBookingCancelledEmail(booking *models.Booking, recipient *models.User) error {
	senderFrom := os.Getenv("SMTP_FROM")
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Booking <b>#%d</b> has been cancelled. Any funds on hold have been released.</p>",
		recipient.Name,
		booking.ID,
	)
	return NewMail(senderFrom, recipient.Email, fmt.Sprintf("Booking #%d cancelled", booking.ID), body)
}
