package sqlstore

// usersSchema is the users store: accounts and payments only, content data
// lives in the videos store.
var usersSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
id TEXT NOT NULL PRIMARY KEY,
email TEXT NOT NULL,
name TEXT NOT NULL,
password TEXT NOT NULL,
access INTEGER NOT NULL DEFAULT 0,
premium BOOLEAN NOT NULL DEFAULT FALSE,
image TEXT NOT NULL DEFAULT '',
created DATETIME NOT NULL);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (email);`,

	`CREATE TABLE IF NOT EXISTS payments (
txid TEXT NOT NULL PRIMARY KEY,
userid TEXT NOT NULL,
amount_cents INTEGER NOT NULL,
code TEXT NOT NULL,
status TEXT NOT NULL,
created DATETIME NOT NULL,
paid DATETIME);`,

	`CREATE INDEX IF NOT EXISTS payments_userid_idx ON payments (userid);`,
}

// videosSchema is the videos store: content plus per-user engagement rows.
// Engagement rows reference users by ID only; the users store is a separate
// database and cannot be joined here.
var videosSchema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
id TEXT NOT NULL PRIMARY KEY,
title TEXT NOT NULL,
description TEXT NOT NULL DEFAULT '',
url TEXT NOT NULL,
thumbnail TEXT NOT NULL DEFAULT '',
viewcount INTEGER NOT NULL DEFAULT 0,
likescount INTEGER NOT NULL DEFAULT 0,
duration INTEGER NOT NULL DEFAULT 0,
premium BOOLEAN NOT NULL DEFAULT FALSE,
creator TEXT NOT NULL DEFAULT '',
created DATETIME NOT NULL);`,

	`CREATE INDEX IF NOT EXISTS videos_created_idx ON videos (created);`,

	`CREATE TABLE IF NOT EXISTS creators (
id TEXT NOT NULL PRIMARY KEY,
name TEXT NOT NULL,
qtd INTEGER NOT NULL DEFAULT 0,
description TEXT NOT NULL DEFAULT '',
image TEXT NOT NULL DEFAULT '',
created DATETIME NOT NULL);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS creators_name_idx ON creators (name);`,

	`CREATE TABLE IF NOT EXISTS categories (
id TEXT NOT NULL PRIMARY KEY,
name TEXT NOT NULL,
created DATETIME NOT NULL);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_idx ON categories (name);`,

	`CREATE TABLE IF NOT EXISTS video_categories (
videoid TEXT NOT NULL,
categoryid TEXT NOT NULL,
PRIMARY KEY (videoid, categoryid));`,

	`CREATE TABLE IF NOT EXISTS favorites (
id INTEGER PRIMARY KEY AUTOINCREMENT,
userid TEXT NOT NULL,
videoid TEXT NOT NULL);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS favorites_user_video_idx ON favorites (userid, videoid);`,

	`CREATE TABLE IF NOT EXISTS likes (
id INTEGER PRIMARY KEY AUTOINCREMENT,
userid TEXT NOT NULL,
videoid TEXT NOT NULL);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS likes_user_video_idx ON likes (userid, videoid);`,

	`CREATE TABLE IF NOT EXISTS history (
userid TEXT NOT NULL,
videoid TEXT NOT NULL,
watchedat DATETIME NOT NULL,
watchduration INTEGER,
PRIMARY KEY (userid, videoid));`,

	`CREATE INDEX IF NOT EXISTS history_watchedat_idx ON history (userid, watchedat);`,
}
