// Package ir implements the tagged algebraic expression tree described
// in the data model: arithmetic, comparison, control flow, memory
// references, SIMD operators, casts, and buffer operators. Related
// operators (Add/Sub/Mul/Div/Mod, the six comparisons, And/Or,
// Minus/Not/Exp, Min/Max, the five assignment forms) are grouped into a
// single Go struct carrying an Op discriminant rather than one Go type
// per operator; this keeps the tree a true tagged union while avoiding
// ~15 near-identical struct/visitor-method pairs.
package ir

import "sentra/internal/types"

// Node is the interface every expression tree node implements. Accept
// is the double-dispatch entry point for the visitor protocol: Visitor
// implementations that want to replace a subtree return the
// replacement; implementations that only read the tree return the node
// unchanged.
type Node interface {
	Type() types.Type
	Accept(v Visitor) Node
}

// ArithOp enumerates the binary arithmetic operators.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Mod
)

func (o ArithOp) String() string {
	return [...]string{"+", "-", "*", "/", "%"}[o]
}

// CmpOp enumerates the binary comparison operators.
type CmpOp int

const (
	EQ CmpOp = iota
	NE
	LT
	LE
	GT
	GE
)

func (o CmpOp) String() string {
	return [...]string{"==", "!=", "<", "<=", ">", ">="}[o]
}

// LogicalOp enumerates the binary logical operators.
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

func (o LogicalOp) String() string {
	return [...]string{"&&", "||"}[o]
}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	Minus UnaryOp = iota
	Not
	ExpOp
)

func (o UnaryOp) String() string {
	return [...]string{"-", "!", "exp"}[o]
}

// MinMaxOp enumerates the saturating binary operators.
type MinMaxOp int

const (
	MinO MinMaxOp = iota
	MaxO
)

func (o MinMaxOp) String() string {
	return [...]string{"min", "max"}[o]
}

// AssignOp enumerates the five mutation forms.
type AssignOp int

const (
	AssignPlain AssignOp = iota
	SumAssign
	SubAssign
	MulAssign
	DivAssign
)

func (o AssignOp) String() string {
	return [...]string{"=", "+=", "-=", "*=", "/="}[o]
}

// SIMDOp enumerates the vector operators.
type SIMDOp int

const (
	SIMDAdd SIMDOp = iota
	SIMDSub
	SIMDMul
	SIMDDiv
	SIMDLoad
	SIMDStore
)

// BufferOp enumerates the buffer lifecycle operators.
type BufferOp int

const (
	BufferCreate BufferOp = iota
	BufferCreateAssign
	BufferReference
	BufferDestroy
)

// ---- Immediates ----

type IntImm struct {
	Val int64
	Typ types.Type
}

func (n *IntImm) Type() types.Type  { return n.Typ }
func (n *IntImm) Accept(v Visitor) Node { return v.VisitIntImm(n) }

type FloatImm struct {
	Val float64
	Typ types.Type
}

func (n *FloatImm) Type() types.Type  { return n.Typ }
func (n *FloatImm) Accept(v Visitor) Node { return v.VisitFloatImm(n) }

type BoolImm struct {
	Val bool
}

func (n *BoolImm) Type() types.Type  { return types.ScalarType(types.Boolean) }
func (n *BoolImm) Accept(v Visitor) Node { return v.VisitBoolImm(n) }

// ConstNode is a named or anonymous compile-time scalar. Value is nil
// until the constant is bound; constants feeding shape expressions must
// be integer-typed and bound before code generation.
type ConstNode struct {
	Name  string
	Typ   types.Type
	Value *int64
}

func (n *ConstNode) Type() types.Type  { return n.Typ }
func (n *ConstNode) Accept(v Visitor) Node { return v.VisitConst(n) }

// ---- Symbols ----

// Var is a named symbol with an optional declared interval, used for
// domain construction.
type Var struct {
	Name   string
	Typ    types.Type
	HasLo  bool
	Lo     int64
	HasHi  bool
	Hi     int64
}

func (n *Var) Type() types.Type  { return n.Typ }
func (n *Var) Accept(v Visitor) Node { return v.VisitVar(n) }

// TensorRef is a named multi-dimensional array with a fixed shape and no
// own storage. Two TensorRefs are equal iff their names match.
type TensorRef struct {
	Name     string
	Shape    []Node // each a Node with a bound integer value (IntImm or bound ConstNode)
	ElemType types.Type
}

func (n *TensorRef) Type() types.Type  { return n.ElemType }
func (n *TensorRef) Accept(v Visitor) Node { return v.VisitTensorRef(n) }

// Rank returns the tensor's number of dimensions.
func (n *TensorRef) Rank() int { return len(n.Shape) }

type ArrayRef struct {
	Name string
	Size Node
	Typ  types.Type
}

func (n *ArrayRef) Type() types.Type  { return n.Typ }
func (n *ArrayRef) Accept(v Visitor) Node { return v.VisitArrayRef(n) }

// ---- Arithmetic / comparison / logical / unary / min-max ----

type Arith struct {
	Op   ArithOp
	A, B Node
	Typ  types.Type
}

func (n *Arith) Type() types.Type  { return n.Typ }
func (n *Arith) Accept(v Visitor) Node { return v.VisitArith(n) }

type Cmp struct {
	Op   CmpOp
	A, B Node
}

func (n *Cmp) Type() types.Type  { return types.ScalarType(types.Boolean) }
func (n *Cmp) Accept(v Visitor) Node { return v.VisitCmp(n) }

type Logical struct {
	Op   LogicalOp
	A, B Node
}

func (n *Logical) Type() types.Type  { return types.ScalarType(types.Boolean) }
func (n *Logical) Accept(v Visitor) Node { return v.VisitLogical(n) }

type Unary struct {
	Op  UnaryOp
	A   Node
	Typ types.Type
}

func (n *Unary) Type() types.Type  { return n.Typ }
func (n *Unary) Accept(v Visitor) Node { return v.VisitUnary(n) }

type MinMax struct {
	Op   MinMaxOp
	A, B Node
	Typ  types.Type
}

func (n *MinMax) Type() types.Type  { return n.Typ }
func (n *MinMax) Accept(v Visitor) Node { return v.VisitMinMax(n) }

// ---- Memory ----

// Reference is a subscript T[i0,...,ik]. Target is a TensorRef, ArrayRef,
// or scalar Var.
type Reference struct {
	Target    Node
	Iterators []Node
	Typ       types.Type
}

func (n *Reference) Type() types.Type  { return n.Typ }
func (n *Reference) Accept(v Visitor) Node { return v.VisitReference(n) }

// ---- Control ----

type For struct {
	Init, Cond, Inc Node
	Body            Node
	Iter            *Var
}

func (n *For) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *For) Accept(v Visitor) Node { return v.VisitFor(n) }

type IfThenElse struct {
	Cond Node
	Then Node
	Else Node // nil if absent
}

func (n *IfThenElse) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *IfThenElse) Accept(v Visitor) Node { return v.VisitIfThenElse(n) }

type Block struct {
	Exprs []Node
}

func (n *Block) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *Block) Accept(v Visitor) Node { return v.VisitBlock(n) }

type Call struct {
	Name string
	Args []Node
	Typ  types.Type
}

func (n *Call) Type() types.Type  { return n.Typ }
func (n *Call) Accept(v Visitor) Node { return v.VisitCall(n) }

// FuncNode is the Function IR node: a named procedure with typed
// tensor-shaped input/output parameters and a translated body.
type FuncNode struct {
	Name    string
	Inputs  []*TensorRef
	Outputs []*TensorRef
	Body    Node
}

func (n *FuncNode) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *FuncNode) Accept(v Visitor) Node { return v.VisitFuncNode(n) }

// CallOnce marks a block that must execute on the first invocation only.
// CondVarName names a boolean at module scope; the module's global-data
// section must contain a matching Let(var, true) by code-gen time.
type CallOnce struct {
	Block       Node
	CondVarName string
}

func (n *CallOnce) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *CallOnce) Accept(v Visitor) Node { return v.VisitCallOnce(n) }

// ---- Mutation ----

// Assign covers Assign/SumAssign/SubAssign/MulAssign/DivAssign; LHS is
// always a Reference into exactly one tensor.
type Assign struct {
	Op  AssignOp
	LHS *Reference
	RHS Node
}

func (n *Assign) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *Assign) Accept(v Visitor) Node { return v.VisitAssign(n) }

type Let struct {
	LHS string
	RHS Node
	Typ types.Type
}

func (n *Let) Type() types.Type  { return n.Typ }
func (n *Let) Accept(v Visitor) Node { return v.VisitLet(n) }

// ---- Vector ----

// SIMDOpr represents Add/Sub/Mul/Div/Load/Store over Width lanes. B is
// nil for Load; for Store, A must be address-like (an Identity tagged
// "reference_address") and B is the stored SIMD value.
type SIMDOpr struct {
	Width int
	Op    SIMDOp
	A, B  Node
	Typ   types.Type
}

func (n *SIMDOpr) Type() types.Type  { return n.Typ }
func (n *SIMDOpr) Accept(v Visitor) Node { return v.VisitSIMDOpr(n) }

// ---- Bookkeeping ----

type Mark struct {
	Text string
}

func (n *Mark) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *Mark) Accept(v Visitor) Node { return v.VisitMark(n) }

// ReferenceAddressTag is the canonical Identity tag marking an
// address-like operand (the first operand of a SIMD Store).
const ReferenceAddressTag = "reference_address"

type Identity struct {
	Expr Node
	Tag  string
}

func (n *Identity) Type() types.Type  { return n.Expr.Type() }
func (n *Identity) Accept(v Visitor) Node { return v.VisitIdentity(n) }

type Cast struct {
	Expr        Node
	ToPrimitive types.Primitive
	ToComposite types.Composite
}

func (n *Cast) Type() types.Type {
	return types.Type{Prim: n.ToPrimitive, Composite: n.ToComposite}
}
func (n *Cast) Accept(v Visitor) Node { return v.VisitCast(n) }

type Allocate struct {
	BufferName string
	Size       Node
	Dtype      types.Type
}

func (n *Allocate) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *Allocate) Accept(v Visitor) Node { return v.VisitAllocate(n) }

type BufferOpr struct {
	Name  string
	Op    BufferOp
	Size  Node
	Dtype types.Type
}

func (n *BufferOpr) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *BufferOpr) Accept(v Visitor) Node { return v.VisitBufferOpr(n) }

// ModuleNode is the top-level unit: global declarations followed by the
// generated functions.
type ModuleNode struct {
	GlobalData *Block
	Functions  []*FuncNode
}

func (n *ModuleNode) Type() types.Type  { return types.ScalarType(types.Void) }
func (n *ModuleNode) Accept(v Visitor) Node { return v.VisitModuleNode(n) }

// Visitor is the double-dispatch protocol: one method per tree variant.
// A reader visitor ignores the returned Node; a mutator visitor returns
// the (possibly replaced) subtree.
type Visitor interface {
	VisitIntImm(*IntImm) Node
	VisitFloatImm(*FloatImm) Node
	VisitBoolImm(*BoolImm) Node
	VisitConst(*ConstNode) Node
	VisitVar(*Var) Node
	VisitTensorRef(*TensorRef) Node
	VisitArrayRef(*ArrayRef) Node
	VisitArith(*Arith) Node
	VisitCmp(*Cmp) Node
	VisitLogical(*Logical) Node
	VisitUnary(*Unary) Node
	VisitMinMax(*MinMax) Node
	VisitReference(*Reference) Node
	VisitFor(*For) Node
	VisitIfThenElse(*IfThenElse) Node
	VisitBlock(*Block) Node
	VisitCall(*Call) Node
	VisitFuncNode(*FuncNode) Node
	VisitCallOnce(*CallOnce) Node
	VisitAssign(*Assign) Node
	VisitLet(*Let) Node
	VisitSIMDOpr(*SIMDOpr) Node
	VisitMark(*Mark) Node
	VisitIdentity(*Identity) Node
	VisitCast(*Cast) Node
	VisitAllocate(*Allocate) Node
	VisitBufferOpr(*BufferOpr) Node
	VisitModuleNode(*ModuleNode) Node
}
