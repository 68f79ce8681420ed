package client

import "context"

// ModuleStub is the explicit, enumerated replacement for dynamically
// importing a remote module's functions wholesale: embed it in a struct and
// write one typed method per remote function. Results are byte-for-byte the
// same as going through Connection.Call directly; the stub only carries the
// module name and the connection.
//
//	type FooModule struct{ client.ModuleStub }
//
//	func (m FooModule) Add(a, b bitvector.BitVector) (value.Word, error) {
//		return m.Call(context.Background(), "add", a, b).Word()
//	}
type ModuleStub struct {
	conn   *Connection
	module string
}

func NewModuleStub(conn *Connection, module string) ModuleStub {
	return ModuleStub{conn: conn, module: module}
}

// Module is the name of the remote module this stub enumerates.
func (s ModuleStub) Module() string {
	return s.module
}

// Call invokes one of the module's top-level functions by bare name.
func (s ModuleStub) Call(ctx context.Context, function string, args ...any) *Deferred {
	return s.conn.Call(ctx, function, args...)
}

// Evaluate evaluates an expression in the module's context.
func (s ModuleStub) Evaluate(ctx context.Context, expression string) *Deferred {
	return s.conn.EvaluateExpression(ctx, expression)
}
