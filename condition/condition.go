// Package condition encodes the age bucket and gender that the generator is asked to
// produce.
//
// A condition is a vector of Ages+Genders values. The first Ages values encode the age
// bucket and the remaining Genders values encode the gender. Every value is -1 except for
// exactly one +1 in each group.
package condition

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

const (
	positive float64 = 1
	negative float64 = -1
)

// GenderNames gives the display name of each gender index
var GenderNames = []string{"Male", "Female"}

// Scheme is the shape of the conditions used by a network
type Scheme struct {
	Ages    int `yaml:"ages" json:"ages"`
	Genders int `yaml:"genders" json:"genders"`
}

// Default is 10 age buckets and 2 genders
var Default = Scheme{Ages: 10, Genders: 2}

// Width returns the number of values in a single condition
func (s Scheme) Width() int {
	return s.Ages + s.Genders
}

// Validate returns an error if either group is empty
func (s Scheme) Validate() error {
	if s.Ages < 1 || s.Genders < 1 {
		return errors.Errorf("Invalid condition scheme: need at least one age and one gender, have %d and %d", s.Ages, s.Genders)
	}
	return nil
}

func (s Scheme) check(age, gender int) error {
	if age < 0 || age >= s.Ages {
		return errors.Errorf("Age index %d out of range [0, %d)", age, s.Ages)
	} else if gender < 0 || gender >= s.Genders {
		return errors.Errorf("Gender index %d out of range [0, %d)", gender, s.Genders)
	}
	return nil
}

// Encode writes the condition for (age, gender) into 'dst', which must have length Width.
func (s Scheme) Encode(dst []float64, age, gender int) error {
	if err := s.check(age, gender); err != nil {
		return err
	} else if len(dst) != s.Width() {
		return errors.Errorf("Can't encode condition into %d values, width is %d", len(dst), s.Width())
	}

	for i := range dst {
		dst[i] = negative
	}
	dst[age] = positive
	dst[s.Ages+gender] = positive

	return nil
}

// Vector returns the condition for (age, gender)
func (s Scheme) Vector(age, gender int) ([]float64, error) {
	v := make([]float64, s.Width())
	if err := s.Encode(v, age, gender); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode recovers the indices from a condition. It returns an error unless each group has
// exactly one positive value.
func (s Scheme) Decode(v []float64) (age, gender int, err error) {
	if len(v) != s.Width() {
		return 0, 0, errors.Errorf("Can't decode condition of %d values, width is %d", len(v), s.Width())
	}

	if age, err = positiveIndex(v[:s.Ages]); err != nil {
		return 0, 0, errors.Wrap(err, "Can't decode age")
	}
	if gender, err = positiveIndex(v[s.Ages:]); err != nil {
		return 0, 0, errors.Wrap(err, "Can't decode gender")
	}

	return age, gender, nil
}

func positiveIndex(group []float64) (int, error) {
	index := -1
	for i, x := range group {
		if x > 0 {
			if index != -1 {
				return 0, errors.Errorf("More than one positive value (%d and %d)", index, i)
			}
			index = i
		}
	}

	if index == -1 {
		return 0, errors.New("No positive value")
	}
	return index, nil
}

// Tensor returns the N×Width conditions for the given pairs of indices. Both slices must
// have the same length.
func (s Scheme) Tensor(ages, genders []int) (*tensor.Tensor, error) {
	if len(ages) != len(genders) {
		return nil, errors.Errorf("Can't build conditions, %d ages but %d genders", len(ages), len(genders))
	}

	w := s.Width()
	t := tensor.New(len(ages), w)
	for i := range ages {
		if err := s.Encode(t.Data[i*w:(i+1)*w], ages[i], genders[i]); err != nil {
			return nil, errors.Wrapf(err, "Can't build condition %d", i)
		}
	}

	return t, nil
}

// Label is the pair of indices named by a dataset folder, such as "3.1"
type Label struct {
	Age, Gender int
}

// String returns the folder name of the label
func (l Label) String() string {
	return strconv.Itoa(l.Age) + "." + strconv.Itoa(l.Gender)
}

// Parse reads a label of the form "<age>.<gender>" and checks it against the scheme.
func (s Scheme) Parse(label string) (Label, error) {
	parts := strings.Split(label, ".")
	if len(parts) != 2 {
		return Label{}, errors.Errorf("Can't parse label %q, expected \"<age>.<gender>\"", label)
	}

	age, err := strconv.Atoi(parts[0])
	if err != nil {
		return Label{}, errors.Wrapf(err, "Can't parse age of label %q", label)
	}
	gender, err := strconv.Atoi(parts[1])
	if err != nil {
		return Label{}, errors.Wrapf(err, "Can't parse gender of label %q", label)
	}

	if err := s.check(age, gender); err != nil {
		return Label{}, errors.Wrapf(err, "Invalid label %q", label)
	}

	return Label{age, gender}, nil
}

// GenderName returns the display name of a gender index, or its number if it has none.
func GenderName(gender int) string {
	if gender >= 0 && gender < len(GenderNames) {
		return GenderNames[gender]
	}
	return strconv.Itoa(gender)
}
