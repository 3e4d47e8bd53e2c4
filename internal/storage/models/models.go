package models

import (
	"time"

	"github.com/legalease/backend/internal/storage"
)

// LegalRecord is one entry of the law catalogue. Every field is free text;
// matching against it is purely lexical.
type LegalRecord struct {
	ID          string `json:"id,omitempty"`
	Category    string `json:"category"`
	Act         string `json:"act"`
	Section     string `json:"section"`
	Description string `json:"description"`
	Punishment  string `json:"punishment"`
}

func LegalRecordFromDocument(doc storage.Document) LegalRecord {
	return LegalRecord{
		ID:          doc.ID,
		Category:    doc.Fields.String("category"),
		Act:         doc.Fields.String("act"),
		Section:     doc.Fields.String("section"),
		Description: doc.Fields.String("description"),
		Punishment:  doc.Fields.String("punishment"),
	}
}

func (r LegalRecord) Fields() storage.Fields {
	return storage.Fields{
		"category":    r.Category,
		"act":         r.Act,
		"section":     r.Section,
		"description": r.Description,
		"punishment":  r.Punishment,
	}
}

const (
	BookingStatusPending = "Pending"
	BookingStatusWon     = "Won"
	BookingStatusLost    = "Lost"
)

type Booking struct {
	ID          string    `json:"id"`
	LawyerID    string    `json:"lawyerId"`
	ClientID    string    `json:"clientId"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func BookingFromDocument(doc storage.Document) Booking {
	createdAt, _ := time.Parse(time.RFC3339Nano, doc.Fields.String("createdAt"))
	return Booking{
		ID:          doc.ID,
		LawyerID:    doc.Fields.String("lawyerId"),
		ClientID:    doc.Fields.String("clientId"),
		Status:      doc.Fields.String("status"),
		Description: doc.Fields.String("description"),
		CreatedAt:   createdAt,
	}
}

func (b Booking) Fields() storage.Fields {
	f := storage.Fields{
		"lawyerId":  b.LawyerID,
		"clientId":  b.ClientID,
		"status":    b.Status,
		"createdAt": b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if b.Description != "" {
		f["description"] = b.Description
	}
	return f
}

// Lawyer is keyed by the id of the user account that registered it.
type Lawyer struct {
	ID             string
	FullName       string
	BarNumber      string
	Specialization string
	TotalCases     int64
	WonCases       int64
	LostCases      int64
}

func LawyerFromDocument(doc storage.Document) Lawyer {
	return Lawyer{
		ID:             doc.ID,
		FullName:       doc.Fields.String("fullName"),
		BarNumber:      doc.Fields.String("barNumber"),
		Specialization: doc.Fields.String("specialization"),
		TotalCases:     doc.Fields.Int64("totalCases"),
		WonCases:       doc.Fields.Int64("wonCases"),
		LostCases:      doc.Fields.Int64("lostCases"),
	}
}

func (l Lawyer) Fields() storage.Fields {
	return storage.Fields{
		"fullName":       l.FullName,
		"barNumber":      l.BarNumber,
		"specialization": l.Specialization,
		"totalCases":     l.TotalCases,
		"wonCases":       l.WonCases,
		"lostCases":      l.LostCases,
	}
}

type Client struct {
	ID       string
	FullName string
	Phone    string
}

func (c Client) Fields() storage.Fields {
	return storage.Fields{
		"fullName": c.FullName,
		"phone":    c.Phone,
	}
}

type LawFirm struct {
	ID             string
	FirmName       string
	RegistrationNo string
	Address        string
}

func (f LawFirm) Fields() storage.Fields {
	return storage.Fields{
		"firmName":       f.FirmName,
		"registrationNo": f.RegistrationNo,
		"address":        f.Address,
	}
}

type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ChatFromDocument(doc storage.Document) Chat {
	createdAt, _ := time.Parse(time.RFC3339Nano, doc.Fields.String("createdAt"))
	return Chat{
		ID:           doc.ID,
		Participants: doc.Fields.Strings("participants"),
		CreatedAt:    createdAt,
	}
}

func (c Chat) Fields() storage.Fields {
	return storage.Fields{
		"participants": append([]string(nil), c.Participants...),
		"createdAt":    c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type ChatMessage struct {
	ID             string    `json:"id"`
	ChatID         string    `json:"chatId"`
	UserID         string    `json:"userId"`
	Text           string    `json:"text"`
	AttachmentName string    `json:"attachmentName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m ChatMessage) Fields() storage.Fields {
	f := storage.Fields{
		"chatId":    m.ChatID,
		"userId":    m.UserID,
		"text":      m.Text,
		"createdAt": m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.AttachmentName != "" {
		f["attachmentName"] = m.AttachmentName
	}
	return f
}

const (
	RoleClient  = "client"
	RoleLawyer  = "lawyer"
	RoleLawFirm = "lawfirm"
)

// User is the login account. PasswordHash is a bcrypt hash and is never
// serialized to API responses.
type User struct {
	ID           string
	Username     string
	Role         string
	PasswordHash string
	DisplayName  string
	PushTokens   []string
}

func UserFromDocument(doc storage.Document) User {
	return User{
		ID:           doc.ID,
		Username:     doc.Fields.String("username"),
		Role:         doc.Fields.String("role"),
		PasswordHash: doc.Fields.String("passwordHash"),
		DisplayName:  doc.Fields.String("displayName"),
		PushTokens:   doc.Fields.Strings("pushTokens"),
	}
}

func (u User) Fields() storage.Fields {
	f := storage.Fields{
		"username":     u.Username,
		"role":         u.Role,
		"passwordHash": u.PasswordHash,
		"displayName":  u.DisplayName,
	}
	if len(u.PushTokens) > 0 {
		f["pushTokens"] = append([]string(nil), u.PushTokens...)
	}
	return f
}

// QueryRecord is one answered question kept for the history endpoints.
type QueryRecord struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   string    `json:"context"`
	Matched   bool      `json:"matched"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

func (q QueryRecord) Fields() storage.Fields {
	return storage.Fields{
		"question":  q.Question,
		"answer":    q.Answer,
		"context":   q.Context,
		"matched":   q.Matched,
		"score":     q.Score,
		"createdAt": q.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func QueryRecordFromDocument(doc storage.Document) QueryRecord {
	createdAt, _ := time.Parse(time.RFC3339Nano, doc.Fields.String("createdAt"))
	matched, _ := doc.Fields["matched"].(bool)
	return QueryRecord{
		ID:        doc.ID,
		Question:  doc.Fields.String("question"),
		Answer:    doc.Fields.String("answer"),
		Context:   doc.Fields.String("context"),
		Matched:   matched,
		Score:     int(doc.Fields.Int64("score")),
		CreatedAt: createdAt,
	}
}
