package data

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	shortLinksTable = "short_links"

	columnID             = "id"
	columnShortCode      = "short_code"
	columnLongURL        = "long_url"
	columnCreatedAt      = "created_at"
	columnExpiryAt       = "expiry_at"
	columnTTLSeconds     = "ttl_seconds"
	columnOwnerID        = "owner_id"
	columnRedirectCount  = "redirect_count"
	columnLastRedirectAt = "last_redirect_at"
	columnMetadata       = "metadata"
)

var shortLinkColumnNames = []string{
	columnID,
	columnShortCode,
	columnLongURL,
	columnCreatedAt,
	columnExpiryAt,
	columnTTLSeconds,
	columnOwnerID,
	columnRedirectCount,
	columnLastRedirectAt,
	columnMetadata,
}

var (
	// ShortLinksColumns holds the columns for the "short_links" table.
	ShortLinksColumns = []*schema.Column{
		{Name: columnID, Type: field.TypeInt64},
		{Name: columnShortCode, Type: field.TypeString, Size: 16},
		{Name: columnLongURL, Type: field.TypeString, Size: 2048},
		{Name: columnCreatedAt, Type: field.TypeTime},
		{Name: columnExpiryAt, Type: field.TypeTime, Nullable: true},
		{Name: columnTTLSeconds, Type: field.TypeInt64, Nullable: true},
		{Name: columnOwnerID, Type: field.TypeString, Nullable: true},
		{Name: columnRedirectCount, Type: field.TypeInt64, Default: 0},
		{Name: columnLastRedirectAt, Type: field.TypeTime, Nullable: true},
		{Name: columnMetadata, Type: field.TypeJSON, Nullable: true},
	}
	// ShortLinksTable holds the schema information for the "short_links" table.
	ShortLinksTable = &schema.Table{
		Name:       shortLinksTable,
		Columns:    ShortLinksColumns,
		PrimaryKey: []*schema.Column{ShortLinksColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "shortlink_short_code",
				Unique:  true,
				Columns: []*schema.Column{ShortLinksColumns[1]},
			},
			{
				Name:    "shortlink_expiry_at",
				Unique:  false,
				Columns: []*schema.Column{ShortLinksColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ShortLinksTable,
	}
)
