// Package notify renders order e-mails and delivers them over SMTP.
package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	gopkgmail "gopkg.in/gomail.v2"

	"github.com/ariefcatur/go-bookstore/internal/config"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatus       = "order_status"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

type Line struct {
	Title    string
	Quantity int
	Price    string
}

// OrderData feeds both order templates; Items and Total are only used by
// the confirmation.
type OrderData struct {
	CustomerName string
	OrderID      string
	Items        []Line
	Total        string
	Status       string
}

type Email struct {
	To       string
	Subject  string
	Template string
	Data     OrderData
}

// Render returns the plain-text and HTML bodies of e.
func Render(e Email) (plain, html string, err error) {
	var pb, hb bytes.Buffer
	if err := textTmpl.ExecuteTemplate(&pb, e.Template+".txt", e.Data); err != nil {
		return "", "", fmt.Errorf("render plain: %w", err)
	}
	if err := htmlTmpl.ExecuteTemplate(&hb, e.Template+".html", e.Data); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	return pb.String(), hb.String(), nil
}

type Sender struct {
	cfg  config.SMTP
	send func(m ...*gopkgmail.Message) error
}

func NewSender(cfg config.SMTP) *Sender {
	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465
	return &Sender{cfg: cfg, send: d.DialAndSend}
}

func (s *Sender) message(e Email) (*gopkgmail.Message, error) {
	plain, html, err := Render(e)
	if err != nil {
		return nil, err
	}
	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", html)
	return m, nil
}

func (s *Sender) Send(e Email) error {
	m, err := s.message(e)
	if err != nil {
		return err
	}
	return s.send(m)
}
