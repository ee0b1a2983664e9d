package input

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseJSON reads {"actors": [...], "scenes": [{"duration": 30,
// "attendance": [0, 1, ...]}]}. Attendance cells may be numbers, booleans
// or null.
func ParseJSON(data []byte) (Matrix, error) {
	if !gjson.ValidBytes(data) {
		return Matrix{}, fmt.Errorf("invalid JSON")
	}
	return FromResult(gjson.ParseBytes(data))
}

// FromResult reads a matrix out of an already parsed JSON value. The API
// uses it on the "matrix" field of a request body.
func FromResult(doc gjson.Result) (Matrix, error) {
	var m Matrix
	actors := doc.Get("actors")
	if !actors.IsArray() {
		return Matrix{}, fmt.Errorf("actors: expected an array")
	}
	for _, a := range actors.Array() {
		m.Actors = append(m.Actors, a.String())
	}
	scenes := doc.Get("scenes")
	if !scenes.IsArray() {
		return Matrix{}, fmt.Errorf("scenes: expected an array")
	}
	var err error
	scenes.ForEach(func(key, s gjson.Result) bool {
		idx := int(key.Int()) + 1
		d := s.Get("duration")
		if d.Type != gjson.Number || d.Num != float64(int(d.Num)) {
			err = fmt.Errorf("scene %d: duration must be an integer", idx)
			return false
		}
		scene := Scene{Duration: int(d.Num)}
		s.Get("attendance").ForEach(func(_, v gjson.Result) bool {
			switch v.Type {
			case gjson.Number:
				scene.Attendance = append(scene.Attendance, v.Num)
			case gjson.True:
				scene.Attendance = append(scene.Attendance, 1)
			case gjson.False, gjson.Null:
				scene.Attendance = append(scene.Attendance, 0)
			default:
				err = fmt.Errorf("scene %d: attendance cell %q is not a number", idx, v.Raw)
				return false
			}
			return true
		})
		if err != nil {
			return false
		}
		m.Scenes = append(m.Scenes, scene)
		return true
	})
	if err != nil {
		return Matrix{}, err
	}
	return m, nil
}
