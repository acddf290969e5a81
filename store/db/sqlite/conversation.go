package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/scholarstream/scholarstream/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `
		INSERT INTO conversation (uid, title, persona, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID,
		create.Title,
		create.Persona,
		create.CreatedTs,
		create.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read conversation id")
	}
	create.ID = id

	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, title, persona, created_ts, updated_ts
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	list := []*store.Conversation{}
	for rows.Next() {
		var c store.Conversation
		if err := rows.Scan(&c.ID, &c.UID, &c.Title, &c.Persona, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM message WHERE conversation_id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete conversation messages")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete conversation")
	}
	return nil
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := `
		INSERT INTO message (conversation_id, role, content, sources, created_ts)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.ConversationID,
		string(create.Role),
		create.Content,
		create.SourcesJSON,
		create.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message id")
	}
	create.ID = id

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}

	query := `
		SELECT id, conversation_id, role, content, sources, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var m store.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.SourcesJSON, &m.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		m.Role = store.MessageRole(role)
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
