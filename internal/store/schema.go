package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	progressCacheTable = "progress_cache"
	authSessionTable   = "auth_sessions"
	requestEventTable  = "api_request_events"
)

var (
	// ProgressCacheColumns holds the columns for the "progress_cache" table.
	ProgressCacheColumns = []*schema.Column{
		{Name: "namespace", Type: field.TypeString, Unique: true},
		{Name: "payload", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ProgressCacheTable holds the schema information for the "progress_cache" table.
	ProgressCacheTable = &schema.Table{
		Name:       progressCacheTable,
		Columns:    ProgressCacheColumns,
		PrimaryKey: []*schema.Column{ProgressCacheColumns[0]},
	}

	// AuthSessionsColumns holds the columns for the "auth_sessions" table.
	// The table holds at most one row, keyed by id 1.
	AuthSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "token", Type: field.TypeString, Size: 4096},
		{Name: "email", Type: field.TypeString, Default: ""},
		{Name: "saved_at", Type: field.TypeTime},
	}
	// AuthSessionsTable holds the schema information for the "auth_sessions" table.
	AuthSessionsTable = &schema.Table{
		Name:       authSessionTable,
		Columns:    AuthSessionsColumns,
		PrimaryKey: []*schema.Column{AuthSessionsColumns[0]},
	}

	// APIRequestEventsColumns holds the columns for the "api_request_events" table.
	APIRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "op", Type: field.TypeString},
		{Name: "target", Type: field.TypeString, Default: ""},
		{Name: "status_code", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_id", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// APIRequestEventsTable holds the schema information for the "api_request_events" table.
	APIRequestEventsTable = &schema.Table{
		Name:       requestEventTable,
		Columns:    APIRequestEventsColumns,
		PrimaryKey: []*schema.Column{APIRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "apirequestevent_op",
				Unique:  false,
				Columns: []*schema.Column{APIRequestEventsColumns[1]},
			},
			{
				Name:    "apirequestevent_created_at",
				Unique:  false,
				Columns: []*schema.Column{APIRequestEventsColumns[8]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ProgressCacheTable,
		AuthSessionsTable,
		APIRequestEventsTable,
	}
)
