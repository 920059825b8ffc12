// Package email sends transactional order emails over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"time"
)

// Sender delivers a rendered message; swapped out in tests.
type Sender func(addr string, from string, to []string, msg []byte) error

// Service renders and sends order lifecycle emails.
type Service struct {
	host string
	port string
	from string
	send Sender
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// NewServiceWithSender is used by tests to capture outgoing mail.
func NewServiceWithSender(host, port, from string, send Sender) *Service {
	return &Service{host: host, port: port, from: from, send: send}
}

// SendOrderConfirmation confirms a freshly created order.
func (s *Service) SendOrderConfirmation(to, orderID string, totalCents int64, delivery time.Time, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmation — order %s", shortID(orderID))
	body := BuildOrderConfirmationBody(orderID, totalCents, delivery, items)
	return s.deliver(to, subject, body)
}

// SendOrderShipped announces that an order left the warehouse.
func (s *Service) SendOrderShipped(to, orderID string) error {
	subject := fmt.Sprintf("Your order %s has shipped", shortID(orderID))
	return s.deliver(to, subject, BuildOrderShippedBody(orderID))
}

// SendOrderCancelled confirms a cancellation.
func (s *Service) SendOrderCancelled(to, orderID string) error {
	subject := fmt.Sprintf("Order %s cancelled", shortID(orderID))
	return s.deliver(to, subject, BuildOrderCancelledBody(orderID))
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
