package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
)

// UserDocument is the searchable projection of a user. No credentials.
type UserDocument struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// UserIndex mirrors users into Elasticsearch. A nil client disables it.
type UserIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewUserIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserIndex {
	return &UserIndex{ES: es, Index: index, Logger: logger}
}

// Enabled reports whether an Elasticsearch client is configured.
func (x *UserIndex) Enabled() bool {
	return x != nil && x.ES != nil && x.Index != ""
}

func toDocument(u *entity.User) UserDocument {
	return UserDocument{
		ID:          u.ID.String(),
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// Put indexes (or reindexes) u.
func (x *UserIndex) Put(ctx context.Context, u *entity.User) error {
	if !x.Enabled() {
		return nil
	}
	b, _ := json.Marshal(toDocument(u))
	req := esapi.IndexRequest{Index: x.Index, DocumentID: u.ID.String(), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		x.warn(err, u.ID.String(), "es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && x.Logger != nil {
		x.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// Remove deletes the document for id. Missing documents are not an error.
func (x *UserIndex) Remove(ctx context.Context, id string) error {
	if !x.Enabled() {
		return nil
	}
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		x.warn(err, id, "es delete failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return nil
}

// Search runs a multi_match query on email. size is clamped to [1, 50], default 10.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]UserDocument, error) {
	if !x.Enabled() {
		return []UserDocument{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "email.keyword"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]UserDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (x *UserIndex) warn(err error, id, msg string) {
	if x.Logger != nil {
		x.Logger.WithError(err).WithField("user_id", id).Warn(msg)
	}
}
