package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rsud-anugerah/shift-swap/backend/internal/config"
	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// envelope mirrors domain.Notification but keeps the payload raw so it
// can be decoded per notification type.
type envelope struct {
	Type domain.NotificationType `json:"type"`
	To   domain.Recipient        `json:"to"`
	Data json.RawMessage         `json:"data"`
}

func main() {
	/**********************************************
	 * create the logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * load configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load configuration", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * create the mail client
	 **********************************************/
	mailClient, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("could not create the mail client", slog.String("error", err.Error()))
		return
	}
	defer mailClient.Close()

	// verify the SMTP credentials before consuming anything
	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := mailClient.DialWithContext(dialCtx); err != nil {
		logger.Error("could not connect to the mail server", slog.String("error", err.Error()))
		return
	}

	telegram := &telegramSender{
		baseURL:  cfg.Telegram.APIBaseURL,
		botToken: cfg.Telegram.BotToken,
		client:   &http.Client{Timeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second},
	}

	/**********************************************
	 * connect to rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("could not open a channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not declare the notification queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not start consuming", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("notification received", slog.String("message", string(msg.Body)))

				var env envelope
				if err := json.Unmarshal(msg.Body, &env); err != nil {
					logger.Error("could not decode notification", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				subject, text, err := renderNotification(env)
				if err != nil {
					logger.Error("could not render notification", slog.String("type", string(env.Type)), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// Telegram first when the recipient linked a chat,
				// email as the fallback channel.
				if env.To.TelegramChatID != "" {
					if err := telegram.send(ctx, env.To.TelegramChatID, text); err != nil {
						logger.Error("could not send telegram message", slog.String("error", err.Error()))
						_ = msg.Nack(false, true)
						continue
					}
				} else {
					if err := sendEmail(mailClient, cfg.Email.SMTP.Username, env.To.Email, subject, text); err != nil {
						logger.Error("could not send email", slog.String("error", err.Error()))
						_ = msg.Nack(false, true)
						continue
					}
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for notifications... (press CTRL+C to exit)")
	<-sigChan

	slog.Info("shutting down notifier worker...")
	cancel()
	wg.Wait()
	slog.Info("notifier worker stopped cleanly")
}

// renderNotification turns a queued notification into a subject line and an
// HTML body. Telegram renders the same HTML (parse_mode=HTML) the email uses.
func renderNotification(env envelope) (subject string, text string, err error) {
	switch env.Type {
	case domain.NotificationSwapProposed:
		var data domain.SwapProposedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", "", err
		}
		subject = "RSUD Anugerah - Permintaan Tukar Shift"
		text = fmt.Sprintf(
			"🏥 <b>RSUD Anugerah</b>\n\n<b>%s</b> mengajukan tukar shift dengan Anda.\n\nTanggal: %s\nJam: %s\nUnit: %s\nAlasan: %s\n\nSilakan buka aplikasi untuk menyetujui atau menolak (permintaan #%d).",
			data.RequesterName, data.ShiftDate, data.ShiftTime, data.UnitCode, data.Reason, data.RequestID,
		)
	case domain.NotificationSwapOutcome:
		var data domain.SwapOutcomeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", "", err
		}
		subject = "RSUD Anugerah - Status Tukar Shift"
		text = fmt.Sprintf(
			"🏥 <b>RSUD Anugerah</b>\n\nPermintaan tukar shift #%d antara <b>%s</b> dan <b>%s</b> kini berstatus <b>%s</b>.\n\nTanggal: %s\nJam: %s\nUnit: %s",
			data.RequestID, data.RequesterName, data.TargetName, data.Status, data.ShiftDate, data.ShiftTime, data.UnitCode,
		)
	case domain.NotificationTest:
		var data domain.TestNotificationData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", "", err
		}
		subject = "RSUD Anugerah - Notifikasi Uji Coba"
		text = fmt.Sprintf("🏥 <b>RSUD Anugerah</b>\n\n%s", data.Message)
	default:
		return "", "", fmt.Errorf("unsupported notification type: %s", env.Type)
	}
	return subject, text, nil
}

func sendEmail(client *mail.Client, from string, to string, subject string, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return client.DialAndSend(msg)
}

type telegramSender struct {
	baseURL  string
	botToken string
	client   *http.Client
}

func (t *telegramSender) send(ctx context.Context, chatID string, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
