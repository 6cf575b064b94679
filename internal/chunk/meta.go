package chunk

// Metadata is the closed set of per-type metadata variants. Exactly one
// concrete type exists per chunk Type; ChunkType reports which.
type Metadata interface {
	ChunkType() Type
}

// ImportOrigin classifies where an imported module comes from.
type ImportOrigin string

const (
	OriginStandard   ImportOrigin = "standard"
	OriginThirdParty ImportOrigin = "third_party"
	OriginLocal      ImportOrigin = "local"
)

// Access is the naming-convention visibility of a method.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// MethodKind distinguishes instance methods from decorator-marked static
// and class methods.
type MethodKind string

const (
	MethodInstance    MethodKind = "instance"
	MethodStatic      MethodKind = "static"
	MethodClassmethod MethodKind = "classmethod"
)

// Param is one parameter of a function or method signature.
type Param struct {
	Name       string `json:"name"`
	Annotation string `json:"annotation,omitempty"`
	Default    string `json:"default,omitempty"`
}

// ImportRecord is one import statement's structured form.
type ImportRecord struct {
	Module string       `json:"module"`
	Items  []string     `json:"items,omitempty"`
	Origin ImportOrigin `json:"origin"`
}

// ConstantRecord is one module-level constant. Values beyond the
// truncation limit keep a marker instead of being dropped.
type ConstantRecord struct {
	Name         string `json:"name"`
	InferredType string `json:"inferred_type"`
	Value        string `json:"value"`
	Truncated    bool   `json:"truncated,omitempty"`
}

// PackageMeta summarizes one directory of source files.
type PackageMeta struct {
	Purpose        string   `json:"purpose"`
	FileCount      int      `json:"file_count"`
	Files          []string `json:"files,omitempty"`
	Subpackages    []string `json:"subpackages,omitempty"`
	Classes        []string `json:"classes,omitempty"`
	Functions      []string `json:"functions,omitempty"`
	APIRoutes      []string `json:"api_routes,omitempty"`
	DatabaseTables []string `json:"database_tables,omitempty"`
	Features       []string `json:"features,omitempty"`
}

func (PackageMeta) ChunkType() Type { return TypePackage }

// ClassMeta describes a class definition. Method bodies live in Method
// chunks; this records the structural facts only.
type ClassMeta struct {
	Purpose     string   `json:"purpose"`
	Methods     []string `json:"methods,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
	BaseClasses []string `json:"base_classes,omitempty"`
	Decorators  []string `json:"decorators,omitempty"`
}

func (ClassMeta) ChunkType() Type { return TypeClass }

// MethodMeta describes a def nested directly in a class body.
type MethodMeta struct {
	Purpose        string     `json:"purpose"`
	Class          string     `json:"class"`
	Parameters     []Param    `json:"parameters,omitempty"`
	ReturnType     string     `json:"return_type,omitempty"`
	Access         Access     `json:"access"`
	Kind           MethodKind `json:"kind"`
	Decorators     []string   `json:"decorators,omitempty"`
	IsAsync        bool       `json:"is_async,omitempty"`
	StatementCount int        `json:"statement_count"`
}

func (MethodMeta) ChunkType() Type { return TypeMethod }

// FunctionMeta describes a module-level def.
type FunctionMeta struct {
	Purpose        string   `json:"purpose"`
	Parameters     []Param  `json:"parameters,omitempty"`
	ReturnType     string   `json:"return_type,omitempty"`
	Decorators     []string `json:"decorators,omitempty"`
	IsAsync        bool     `json:"is_async,omitempty"`
	StatementCount int      `json:"statement_count"`
}

func (FunctionMeta) ChunkType() Type { return TypeFunction }

// ImportsMeta holds one file's import statements in source order.
type ImportsMeta struct {
	Purpose string         `json:"purpose"`
	Imports []ImportRecord `json:"imports"`
	Spans   []LineRange    `json:"spans,omitempty"`
}

func (ImportsMeta) ChunkType() Type { return TypeImports }

// ConstantsMeta holds one file's module-level constants in source order.
type ConstantsMeta struct {
	Purpose   string           `json:"purpose"`
	Constants []ConstantRecord `json:"constants"`
	Spans     []LineRange      `json:"spans,omitempty"`
}

func (ConstantsMeta) ChunkType() Type { return TypeConstants }
