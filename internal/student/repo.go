package student

import (
	"context"
	"database/sql"
)

// Record is one row of the shared student table. No field is unique;
// rows are targeted by id for edit and delete.
type Record struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	FathersName string `json:"fathers_name"`
	Age         int    `json:"age"`
	Email       string `json:"email"`
}

// Repository persists student records in the students database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the students table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS student_records (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			surname VARCHAR(255) NOT NULL,
			fathers_name VARCHAR(255) NOT NULL,
			age INT NOT NULL,
			email VARCHAR(255) NOT NULL
		)
	`)
	return err
}

// List returns every record ordered by id.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, surname, fathers_name, age, email
		FROM student_records ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Surname, &rec.FathersName, &rec.Age, &rec.Email); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Insert writes a new record and returns it with the assigned id.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO student_records (name, surname, fathers_name, age, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.Name, rec.Surname, rec.FathersName, rec.Age, rec.Email)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update rewrites the record with the given id. Returns the number of
// rows touched; zero means the id did not exist.
func (r *Repository) Update(ctx context.Context, rec Record) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE student_records
		SET name = $2, surname = $3, fathers_name = $4, age = $5, email = $6
		WHERE id = $1
	`, rec.ID, rec.Name, rec.Surname, rec.FathersName, rec.Age, rec.Email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the record with the given id. Returns rows touched.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM student_records WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
