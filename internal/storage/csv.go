package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/launchsim/internal/sequence"
)

var frameHeader = []string{
	"tick", "elapsed", "stage", "target_vy", "vibrating", "frozen", "rig",
	"has_body", "x", "y", "z", "vx", "vy", "vz",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteFramesCSV writes frames with a header row.
func WriteFramesCSV(out io.Writer, frames []sequence.Frame) error {
	w := csv.NewWriter(out)
	if err := w.Write(frameHeader); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{
			strconv.Itoa(f.Tick),
			formatFloat(f.Elapsed),
			f.Stage.String(),
			formatFloat(f.TargetVelocityY),
			strconv.FormatBool(f.Vibrating),
			strconv.FormatBool(f.Frozen),
			f.Rig.String(),
			strconv.FormatBool(f.HasBody),
			formatFloat(f.Position.X),
			formatFloat(f.Position.Y),
			formatFloat(f.Position.Z),
			formatFloat(f.Velocity.X),
			formatFloat(f.Velocity.Y),
			formatFloat(f.Velocity.Z),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadFramesCSV parses what WriteFramesCSV wrote.
func ReadFramesCSV(in io.Reader) ([]sequence.Frame, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sequence.Frame{}, nil
	}

	frames := make([]sequence.Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		f, err := parseFrame(record)
		if err != nil {
			return nil, fmt.Errorf("frames.csv line %d: %w", i+2, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func parseFrame(rec []string) (sequence.Frame, error) {
	var (
		f   sequence.Frame
		err error
	)
	if f.Tick, err = strconv.Atoi(rec[0]); err != nil {
		return f, err
	}
	if err = f.Stage.UnmarshalText([]byte(rec[2])); err != nil {
		return f, err
	}
	if err = f.Rig.UnmarshalText([]byte(rec[6])); err != nil {
		return f, err
	}

	bools := []*bool{&f.Vibrating, &f.Frozen, &f.HasBody}
	for i, col := range []int{4, 5, 7} {
		if *bools[i], err = strconv.ParseBool(rec[col]); err != nil {
			return f, err
		}
	}

	floats := []*float64{
		&f.Elapsed, &f.TargetVelocityY,
		&f.Position.X, &f.Position.Y, &f.Position.Z,
		&f.Velocity.X, &f.Velocity.Y, &f.Velocity.Z,
	}
	for i, col := range []int{1, 3, 8, 9, 10, 11, 12, 13} {
		if *floats[i], err = strconv.ParseFloat(rec[col], 64); err != nil {
			return f, err
		}
	}
	return f, nil
}
