package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hear-me-out/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres keeps each room as one jsonb row in the rooms table. Writes lock the
// touched rows for the length of a transaction and announce the room code with
// pg_notify, so other server instances can refresh their subscribers.
type Postgres struct {
	db      *gorm.DB
	channel string

	mu   sync.Mutex
	subs map[string]*subscriber

	// fetchMu serializes subscriber refreshes so deliveries stay ordered.
	fetchMu sync.Mutex
}

func NewPostgres(conn *gorm.DB, channel string) *Postgres {
	if channel == "" {
		channel = "room_changes"
	}
	return &Postgres{
		db:      conn,
		channel: channel,
		subs:    make(map[string]*subscriber),
	}
}

func (p *Postgres) Get(ctx context.Context, path string) (json.RawMessage, error) {
	parts, code, err := roomParts(path)
	if err != nil {
		return nil, err
	}
	var row db.Room
	err = p.db.WithContext(ctx).Where("code = ?", code).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	node, err := normalize(json.RawMessage(row.Data))
	if err != nil {
		return nil, err
	}
	root := make(map[string]any)
	setNode(root, []string{RoomsRoot, code}, node)
	return encodeNode(getNode(root, parts))
}

func (p *Postgres) Set(ctx context.Context, path string, value any) error {
	return p.Update(ctx, map[string]any{path: value})
}

func (p *Postgres) Update(ctx context.Context, values map[string]any) error {
	type write struct {
		parts []string
		value any
	}
	writes := make([]write, 0, len(values))
	touched := make([][]string, 0, len(values))
	for path, value := range values {
		parts, _, err := roomParts(path)
		if err != nil {
			return err
		}
		normalized, err := normalize(value)
		if err != nil {
			return err
		}
		writes = append(writes, write{parts: parts, value: normalized})
		touched = append(touched, parts)
	}
	return p.mutate(ctx, touched, func(root map[string]any) error {
		for _, w := range writes {
			setNode(root, w.parts, w.value)
		}
		return nil
	})
}

func (p *Postgres) Transact(ctx context.Context, path string, fn TransactFunc) (json.RawMessage, error) {
	parts, _, err := roomParts(path)
	if err != nil {
		return nil, err
	}
	var result json.RawMessage
	err = p.mutate(ctx, [][]string{parts}, func(root map[string]any) error {
		current, err := encodeNode(getNode(root, parts))
		if err != nil {
			return err
		}
		next, err := fn(current)
		if errors.Is(err, ErrNoChange) {
			result = current
			return ErrNoChange
		}
		if err != nil {
			return err
		}
		normalized, err := normalize(next)
		if err != nil {
			return err
		}
		setNode(root, parts, normalized)
		result, err = encodeNode(normalized)
		return err
	})
	if errors.Is(err, ErrNoChange) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Postgres) Subscribe(ctx context.Context, path string, fn func(json.RawMessage)) (Subscription, error) {
	parts, _, err := roomParts(path)
	if err != nil {
		return nil, err
	}
	sub := newSubscriber(parts, fn, p.unsubscribe)
	p.mu.Lock()
	p.subs[sub.id] = sub
	p.mu.Unlock()
	if err := p.refresh(ctx, []*subscriber{sub}); err != nil {
		sub.Close()
		return nil, err
	}
	sub.start(ctx)
	return sub, nil
}

// Listen relays notifications from other instances to local subscribers until
// ctx is cancelled.
func (p *Postgres) Listen(ctx context.Context, dsn string) error {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Error().Err(err).Msg("room listener event")
		}
	})
	if err := listener.Listen(p.channel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen on %s: %w", p.channel, err)
	}
	defer listener.Close()
	log.Info().Str("channel", p.channel).Msg("listening for room changes")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case note := <-listener.Notify:
			if note == nil {
				// reconnected; anything may have changed meanwhile
				p.dispatch(ctx, "")
				continue
			}
			p.dispatch(ctx, note.Extra)
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				log.Error().Err(err).Msg("room listener ping failed")
			}
		}
	}
}

func (p *Postgres) mutate(ctx context.Context, touched [][]string, apply func(root map[string]any) error) error {
	codes := make([]string, 0, len(touched))
	seen := make(map[string]struct{}, len(touched))
	for _, parts := range touched {
		code, _ := roomKey(parts)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	// fixed lock order across rooms
	sort.Strings(codes)

	var applyErr error
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		root := make(map[string]any)
		existing := make(map[string]bool, len(codes))
		for _, code := range codes {
			var row db.Room
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).Take(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			node, err := normalize(json.RawMessage(row.Data))
			if err != nil {
				return err
			}
			setNode(root, []string{RoomsRoot, code}, node)
			existing[code] = true
		}
		if err := apply(root); err != nil {
			applyErr = err
			return err
		}
		now := time.Now().UTC()
		for _, code := range codes {
			node := getNode(root, []string{RoomsRoot, code})
			if node == nil {
				if !existing[code] {
					continue
				}
				if err := tx.Where("code = ?", code).Delete(&db.Room{}).Error; err != nil {
					return err
				}
			} else {
				data, err := json.Marshal(node)
				if err != nil {
					return err
				}
				if existing[code] {
					err = tx.Model(&db.Room{}).Where("code = ?", code).Updates(map[string]any{
						"data":       datatypes.JSON(data),
						"version":    gorm.Expr("version + 1"),
						"updated_at": now,
					}).Error
				} else {
					err = tx.Create(&db.Room{
						Code:      code,
						Data:      datatypes.JSON(data),
						Version:   1,
						CreatedAt: now,
						UpdatedAt: now,
					}).Error
				}
				if err != nil {
					return err
				}
			}
			if err := tx.Exec("SELECT pg_notify(?, ?)", p.channel, code).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, code := range codes {
		p.dispatch(context.WithoutCancel(ctx), code)
	}
	return nil
}

// dispatch re-reads the paths of subscribers watching code, or of every
// subscriber when code is empty.
func (p *Postgres) dispatch(ctx context.Context, code string) {
	p.mu.Lock()
	subs := make([]*subscriber, 0, len(p.subs))
	for _, sub := range p.subs {
		if code == "" {
			subs = append(subs, sub)
			continue
		}
		if key, ok := roomKey(sub.path); ok && key == code {
			subs = append(subs, sub)
		}
	}
	p.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.refresh(ctx, subs); err != nil {
		log.Warn().Err(err).Str("room_id", code).Msg("room subscriber refresh failed")
	}
}

func (p *Postgres) refresh(ctx context.Context, subs []*subscriber) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	var firstErr error
	for _, sub := range subs {
		value, err := p.Get(ctx, strings.Join(sub.path, "/"))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sub.enqueue(value)
	}
	return firstErr
}

func (p *Postgres) unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

func roomParts(path string) ([]string, string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, "", err
	}
	code, ok := roomKey(parts)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is not below %s/{id}", ErrInvalidPath, path, RoomsRoot)
	}
	return parts, code, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
