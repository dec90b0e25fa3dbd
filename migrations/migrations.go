package migrations

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Identifiers are 16-byte values compared byte for byte; SQLite treats
// BINARY(16) as a blob column, MySQL as fixed binary.
var sharedTables = []string{
	`CREATE TABLE IF NOT EXISTS order_services (
		id BINARY(16) PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS order_products (
		id BINARY(16) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		unit_cost DOUBLE NOT NULL,
		unit_price DOUBLE NOT NULL,
		service_id BINARY(16) NOT NULL,
		FOREIGN KEY (service_id) REFERENCES order_services(id)
	);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BINARY(16) PRIMARY KEY,
		order_id BINARY(16) NOT NULL,
		product_id BINARY(16) NOT NULL,
		service_id BINARY(16) NOT NULL,
		quantity INT NOT NULL,
		seq INT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES order_products(id)
	);`,
}

// Status names are matched case-sensitively; MySQL needs a binary collation
// for that, SQLite compares binary by default. orders.seq records insertion
// order for stable listing: MySQL assigns it via AUTO_INCREMENT, SQLite via
// an insert trigger, so concurrent creations never contend on a computed
// value.
var mysqlTables = []string{
	`CREATE TABLE IF NOT EXISTS order_statuses (
		id BINARY(16) PRIMARY KEY,
		name VARCHAR(32) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BINARY(16) PRIMARY KEY,
		reseller_id BINARY(16) NOT NULL,
		customer_id BINARY(16) NOT NULL,
		status_id BINARY(16) NOT NULL,
		created_date DATETIME NOT NULL,
		seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
		FOREIGN KEY (status_id) REFERENCES order_statuses(id)
	);`,
}

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS order_statuses (
		id BINARY(16) PRIMARY KEY,
		name VARCHAR(32) NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BINARY(16) PRIMARY KEY,
		reseller_id BINARY(16) NOT NULL,
		customer_id BINARY(16) NOT NULL,
		status_id BINARY(16) NOT NULL,
		created_date DATETIME NOT NULL,
		seq BIGINT UNIQUE,
		FOREIGN KEY (status_id) REFERENCES order_statuses(id)
	);`,
	`CREATE TRIGGER IF NOT EXISTS orders_assign_seq AFTER INSERT ON orders
	WHEN NEW.seq IS NULL
	BEGIN
		UPDATE orders SET seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM orders) WHERE id = NEW.id;
	END;`,
}

func tablesFor(driver string) []string {
	var statements []string
	if driver == "mysql" {
		statements = append(statements, mysqlTables...)
	} else {
		statements = append(statements, sqliteTables...)
	}
	// order_items references orders, so order tables come first.
	statements = append(statements, sharedTables...)
	return statements
}

// AutoMigrate creates the order tables if they do not exist. driver selects
// the DDL dialect: "mysql", or anything else for SQLite.
func AutoMigrate(retries int, driver string, db *sql.DB) error {
	for _, query := range tablesFor(driver) {
		_, err := db.Exec(query)
		for i := 0; err != nil && i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedStatuses inserts the given status names when the registry is empty.
// The registry is owned by an external admin path; this is bootstrap
// convenience for fresh databases only.
func SeedStatuses(db *sql.DB, names ...string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM order_statuses`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, name := range names {
		id := uuid.New()
		if _, err := db.Exec(`INSERT INTO order_statuses (id, name) VALUES (?, ?)`, id[:], name); err != nil {
			return err
		}
	}
	return nil
}
