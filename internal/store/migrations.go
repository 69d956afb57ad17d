package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create chat conversations and messages",
		SQL: `
			CREATE TABLE chat_conversations (
				id           TEXT PRIMARY KEY,
				session_id   TEXT NOT NULL,
				display_name TEXT NOT NULL,
				active       INTEGER NOT NULL DEFAULT 1,
				created_at   TEXT NOT NULL,
				updated_at   TEXT NOT NULL
			);

			CREATE UNIQUE INDEX idx_chat_conversations_session ON chat_conversations (session_id);
			CREATE INDEX idx_chat_conversations_updated ON chat_conversations (updated_at);

			CREATE TABLE chat_messages (
				seq             INTEGER PRIMARY KEY AUTOINCREMENT,
				id              TEXT NOT NULL UNIQUE,
				conversation_id TEXT NOT NULL REFERENCES chat_conversations(id),
				sender          TEXT NOT NULL CHECK (sender IN ('user', 'bot', 'admin')),
				content         TEXT NOT NULL,
				created_at      TEXT NOT NULL
			);

			CREATE INDEX idx_chat_messages_conversation ON chat_messages (conversation_id, seq);
		`,
	},
	{
		Version: 2,
		Name:    "create admin users",
		SQL: `
			CREATE TABLE admin_users (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				email         TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role          TEXT NOT NULL DEFAULT 'admin',
				created_at    TEXT NOT NULL
			);

			CREATE UNIQUE INDEX idx_admin_users_email ON admin_users (email COLLATE NOCASE);
		`,
	},
	{
		Version: 3,
		Name:    "create catalogue items with FTS5",
		SQL: `
			CREATE TABLE catalogue_items (
				id                TEXT PRIMARY KEY,
				title             TEXT NOT NULL,
				description       TEXT NOT NULL,
				short_description TEXT NOT NULL DEFAULT '',
				features          TEXT NOT NULL DEFAULT '[]',
				technologies      TEXT NOT NULL DEFAULT '[]',
				price             REAL NOT NULL DEFAULT 0,
				currency          TEXT NOT NULL DEFAULT 'AZN',
				images            TEXT NOT NULL DEFAULT '[]',
				demo_url          TEXT NOT NULL DEFAULT '',
				category          TEXT NOT NULL DEFAULT '',
				is_featured       INTEGER NOT NULL DEFAULT 0,
				is_active         INTEGER NOT NULL DEFAULT 1,
				created_at        TEXT NOT NULL,
				updated_at        TEXT NOT NULL
			);

			CREATE INDEX idx_catalogue_active ON catalogue_items (is_active, created_at);
			CREATE INDEX idx_catalogue_category ON catalogue_items (category);

			CREATE VIRTUAL TABLE catalogue_fts USING fts5(
				title,
				description,
				technologies,
				content='catalogue_items',
				content_rowid='rowid'
			);

			CREATE TRIGGER catalogue_ai AFTER INSERT ON catalogue_items BEGIN
				INSERT INTO catalogue_fts(rowid, title, description, technologies)
				VALUES (new.rowid, new.title, new.description, new.technologies);
			END;

			CREATE TRIGGER catalogue_ad AFTER DELETE ON catalogue_items BEGIN
				INSERT INTO catalogue_fts(catalogue_fts, rowid, title, description, technologies)
				VALUES ('delete', old.rowid, old.title, old.description, old.technologies);
			END;

			CREATE TRIGGER catalogue_au AFTER UPDATE ON catalogue_items BEGIN
				INSERT INTO catalogue_fts(catalogue_fts, rowid, title, description, technologies)
				VALUES ('delete', old.rowid, old.title, old.description, old.technologies);
				INSERT INTO catalogue_fts(rowid, title, description, technologies)
				VALUES (new.rowid, new.title, new.description, new.technologies);
			END;
		`,
	},
	{
		Version: 4,
		Name:    "create contact messages",
		SQL: `
			CREATE TABLE contact_messages (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				email      TEXT NOT NULL,
				phone      TEXT NOT NULL DEFAULT '',
				subject    TEXT NOT NULL DEFAULT '',
				message    TEXT NOT NULL,
				is_read    INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			);

			CREATE INDEX idx_contact_created ON contact_messages (created_at);
		`,
	},
}
