package forces

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/san-kum/forcegraph/internal/dynamo"
)

const (
	DefaultCenterX         = 0.5
	DefaultCenterY         = 0.5
	DefaultCenterStrength  = 1.0
	DefaultChargeStrength  = -30.0
	DefaultDistanceMin     = 1.0
	DefaultDistanceMax     = 2000.0
	DefaultTheta           = 0.9
	DefaultCollideStrength = 0.7
	DefaultCollideRadius   = 5.0
	DefaultAxisStrength    = 0.1
	DefaultLinkDistance    = 30.0
	DefaultIterations      = 1
)

var validate = validator.New()

// Params is the typed configuration of a single force.
type Params interface {
	Kind() Kind
	params()
}

// CenterParams places the centering target at a fraction of the viewport.
type CenterParams struct {
	X        float64 `json:"x" yaml:"x" toml:"x" validate:"gte=0,lte=1"`
	Y        float64 `json:"y" yaml:"y" toml:"y" validate:"gte=0,lte=1"`
	Strength float64 `json:"strength" yaml:"strength" toml:"strength" validate:"gte=0,lte=1"`
}

// ChargeParams configures many-body repulsion (negative strength) or
// attraction (positive strength).
type ChargeParams struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Strength    float64 `json:"strength" yaml:"strength" toml:"strength" validate:"gte=-1000,lte=1000"`
	DistanceMin float64 `json:"distanceMin" yaml:"distanceMin" toml:"distanceMin" validate:"gte=0,lte=1000"`
	DistanceMax float64 `json:"distanceMax" yaml:"distanceMax" toml:"distanceMax" validate:"gtefield=DistanceMin,lte=100000"`
	Theta       float64 `json:"theta" yaml:"theta" toml:"theta" validate:"gte=0,lte=2"`
}

// CollideParams configures overlap resolution.
type CollideParams struct {
	Enabled    bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Strength   float64 `json:"strength" yaml:"strength" toml:"strength" validate:"gte=0,lte=1"`
	Radius     float64 `json:"radius" yaml:"radius" toml:"radius" validate:"gte=0,lte=500"`
	Iterations int     `json:"iterations" yaml:"iterations" toml:"iterations" validate:"gte=1,lte=20"`
}

// XParams pulls bodies toward the vertical line at X·width.
type XParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Strength float64 `json:"strength" yaml:"strength" toml:"strength" validate:"gte=0,lte=1"`
	X        float64 `json:"x" yaml:"x" toml:"x" validate:"gte=0,lte=1"`
}

// YParams pulls bodies toward the horizontal line at Y·height.
type YParams struct {
	Enabled  bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Strength float64 `json:"strength" yaml:"strength" toml:"strength" validate:"gte=0,lte=1"`
	Y        float64 `json:"y" yaml:"y" toml:"y" validate:"gte=0,lte=1"`
}

// LinkParams configures the spring solver.
type LinkParams struct {
	Enabled    bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Distance   float64 `json:"distance" yaml:"distance" toml:"distance" validate:"gte=0,lte=10000"`
	Iterations int     `json:"iterations" yaml:"iterations" toml:"iterations" validate:"gte=1,lte=20"`
}

func (CenterParams) Kind() Kind  { return Center }
func (ChargeParams) Kind() Kind  { return Charge }
func (CollideParams) Kind() Kind { return Collide }
func (XParams) Kind() Kind       { return ForceX }
func (YParams) Kind() Kind       { return ForceY }
func (LinkParams) Kind() Kind    { return Link }

func (CenterParams) params()  {}
func (ChargeParams) params()  {}
func (CollideParams) params() {}
func (XParams) params()       {}
func (YParams) params()       {}
func (LinkParams) params()    {}

// Config is the full force record.
type Config struct {
	Center  CenterParams  `json:"center" yaml:"center" toml:"center"`
	Charge  ChargeParams  `json:"charge" yaml:"charge" toml:"charge"`
	Collide CollideParams `json:"collide" yaml:"collide" toml:"collide"`
	ForceX  XParams       `json:"forceX" yaml:"forceX" toml:"forceX"`
	ForceY  YParams       `json:"forceY" yaml:"forceY" toml:"forceY"`
	Link    LinkParams    `json:"link" yaml:"link" toml:"link"`
}

// DefaultConfig returns the slider defaults of the demo.
func DefaultConfig() Config {
	return Config{
		Center: CenterParams{X: DefaultCenterX, Y: DefaultCenterY, Strength: DefaultCenterStrength},
		Charge: ChargeParams{
			Enabled:     true,
			Strength:    DefaultChargeStrength,
			DistanceMin: DefaultDistanceMin,
			DistanceMax: DefaultDistanceMax,
			Theta:       DefaultTheta,
		},
		Collide: CollideParams{
			Enabled:    true,
			Strength:   DefaultCollideStrength,
			Radius:     DefaultCollideRadius,
			Iterations: DefaultIterations,
		},
		ForceX: XParams{Enabled: false, Strength: DefaultAxisStrength, X: 0.5},
		ForceY: YParams{Enabled: false, Strength: DefaultAxisStrength, Y: 0.5},
		Link:   LinkParams{Enabled: true, Distance: DefaultLinkDistance, Iterations: DefaultIterations},
	}
}

// Params returns the configuration of one force.
func (c Config) Params(k Kind) Params {
	switch k {
	case Center:
		return c.Center
	case Charge:
		return c.Charge
	case Collide:
		return c.Collide
	case ForceX:
		return c.ForceX
	case ForceY:
		return c.ForceY
	case Link:
		return c.Link
	}
	return nil
}

// With returns a copy of c with one force replaced.
func (c Config) With(p Params) Config {
	switch v := p.(type) {
	case CenterParams:
		c.Center = v
	case ChargeParams:
		c.Charge = v
	case CollideParams:
		c.Collide = v
	case XParams:
		c.ForceX = v
	case YParams:
		c.ForceY = v
	case LinkParams:
		c.Link = v
	}
	return c
}

// Enabled reports whether a force currently contributes. Center has no
// switch and is always on.
func (c Config) Enabled(k Kind) bool {
	switch k {
	case Charge:
		return c.Charge.Enabled
	case Collide:
		return c.Collide.Enabled
	case ForceX:
		return c.ForceX.Enabled
	case ForceY:
		return c.ForceY.Enabled
	case Link:
		return c.Link.Enabled
	}
	return true
}

// Toggle returns the parameters of force k with its switch flipped. It
// reports false for Center, which cannot be disabled.
func (c Config) Toggle(k Kind) (Params, bool) {
	switch k {
	case Charge:
		p := c.Charge
		p.Enabled = !p.Enabled
		return p, true
	case Collide:
		p := c.Collide
		p.Enabled = !p.Enabled
		return p, true
	case ForceX:
		p := c.ForceX
		p.Enabled = !p.Enabled
		return p, true
	case ForceY:
		p := c.ForceY
		p.Enabled = !p.Enabled
		return p, true
	case Link:
		p := c.Link
		p.Enabled = !p.Enabled
		return p, true
	}
	return nil, false
}

// Validate checks every force. The returned error is a *dynamo.ConfigError
// naming the first failing force.
func (c Config) Validate() error {
	for _, k := range Kinds {
		if err := ValidateParams(c.Params(k)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateParams checks the ranges of a single force.
func ValidateParams(p Params) error {
	if p == nil {
		return &dynamo.ConfigError{Err: errors.New("nil parameters")}
	}
	if err := validate.Struct(p); err != nil {
		return &dynamo.ConfigError{Force: p.Kind().String(), Err: formatValidationError(err)}
	}
	return nil
}

// PatchJSON decodes a partial JSON object over the current parameters of
// force k. Fields absent from data keep their current values; unknown
// fields are an error.
func (c Config) PatchJSON(k Kind, data []byte) (Params, error) {
	switch k {
	case Center:
		return patch(c.Center, data)
	case Charge:
		return patch(c.Charge, data)
	case Collide:
		return patch(c.Collide, data)
	case ForceX:
		return patch(c.ForceX, data)
	case ForceY:
		return patch(c.ForceY, data)
	case Link:
		return patch(c.Link, data)
	}
	return nil, fmt.Errorf("%w: %v", dynamo.ErrUnknownForce, k)
}

func patch[P Params](v P, data []byte) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Set assigns one numeric field addressed as "force.field", for example
// "charge.strength". The result is not validated.
func (c Config) Set(path string, value float64) (Config, error) {
	name, field, ok := strings.Cut(path, ".")
	if !ok || field == "" {
		return c, fmt.Errorf("%w: parameter path %q is not force.field", dynamo.ErrInvalidConfig, path)
	}
	k, err := ParseKind(name)
	if err != nil {
		return c, err
	}
	data, err := json.Marshal(map[string]float64{field: value})
	if err != nil {
		return c, err
	}
	p, err := c.PatchJSON(k, data)
	if err != nil {
		return c, &dynamo.ConfigError{Force: k.String(), Err: err}
	}
	return c.With(p), nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
