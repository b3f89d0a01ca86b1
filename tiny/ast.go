package tiny

type Node interface {
	Pos() Position
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// Literal is implemented by the constant expressions BoolLiteral,
// NumberLiteral and TextLiteral.
type Literal interface {
	Expression
	literalNode()
}

// BinaryOperator enumerates the infix operators of the grammar.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return "?"
	}
}

type Program struct {
	Statements []Statement
	source     string
}

func (p *Program) Pos() Position {
	if len(p.Statements) == 0 {
		return Position{}
	}
	return p.Statements[0].Pos()
}

// Source returns the text the program was parsed from.
func (p *Program) Source() string { return p.source }

type Function struct {
	Params   []string
	Body     []Statement
	position Position
}

func (f *Function) Pos() Position { return f.position }

type FunctionStmt struct {
	Name     string
	Function *Function
	position Position
}

func (s *FunctionStmt) stmtNode()     {}
func (s *FunctionStmt) Pos() Position { return s.position }

type AssignStmt struct {
	Name     string
	Value    Expression
	position Position
}

func (s *AssignStmt) stmtNode()     {}
func (s *AssignStmt) Pos() Position { return s.position }

type IfStmt struct {
	Condition Expression
	Body      []Statement
	position  Position
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Pos() Position { return s.position }

type WhileStmt struct {
	Condition Expression
	Body      []Statement
	position  Position
}

func (s *WhileStmt) stmtNode()     {}
func (s *WhileStmt) Pos() Position { return s.position }

type ReturnStmt struct {
	Value    Expression
	position Position
}

func (s *ReturnStmt) stmtNode()     {}
func (s *ReturnStmt) Pos() Position { return s.position }

// Identifier is a variable reference.
type Identifier struct {
	Name     string
	position Position
}

func (e *Identifier) exprNode()     {}
func (e *Identifier) Pos() Position { return e.position }

type BoolLiteral struct {
	Value    bool
	position Position
}

func (e *BoolLiteral) exprNode()     {}
func (e *BoolLiteral) literalNode()  {}
func (e *BoolLiteral) Pos() Position { return e.position }

type NumberLiteral struct {
	Value    float64
	position Position
}

func (e *NumberLiteral) exprNode()     {}
func (e *NumberLiteral) literalNode()  {}
func (e *NumberLiteral) Pos() Position { return e.position }

type TextLiteral struct {
	Value    string
	position Position
}

func (e *TextLiteral) exprNode()     {}
func (e *TextLiteral) literalNode()  {}
func (e *TextLiteral) Pos() Position { return e.position }

type ArrayLiteral struct {
	Elements []Expression
	position Position
}

func (e *ArrayLiteral) exprNode()     {}
func (e *ArrayLiteral) Pos() Position { return e.position }

type BinaryExpr struct {
	Left     Expression
	Operator BinaryOperator
	Right    Expression
	position Position
}

func (e *BinaryExpr) exprNode()     {}
func (e *BinaryExpr) Pos() Position { return e.position }

type CallExpr struct {
	Name     string
	Args     []Expression
	position Position
}

func (e *CallExpr) exprNode()     {}
func (e *CallExpr) Pos() Position { return e.position }

type IndexExpr struct {
	Object   Expression
	Index    Expression
	position Position
}

func (e *IndexExpr) exprNode()     {}
func (e *IndexExpr) Pos() Position { return e.position }

type MemberExpr struct {
	Object   Expression
	Property string
	position Position
}

func (e *MemberExpr) exprNode()     {}
func (e *MemberExpr) Pos() Position { return e.position }

type MethodCallExpr struct {
	Object   Expression
	Method   string
	Args     []Expression
	position Position
}

func (e *MethodCallExpr) exprNode()     {}
func (e *MethodCallExpr) Pos() Position { return e.position }
