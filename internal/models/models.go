// internal/models/image.go
package models

import "time"

type Image struct {
	ID         int64     `db:"image_id"`
	Data       []byte    `db:"image_data"`
	CapturedAt time.Time `db:"image_datetime"`
	Width      int       `db:"image_width"`  // declared by the uploader, never decoded
	Height     int       `db:"image_height"` // declared by the uploader, never decoded
	Location   *string   `db:"image_location"`
}
