package ast

// Listener receives paired callbacks while Walk traverses a tree.
//
// Enter is called before a node's children are visited. Returning false
// skips the children and the matching Leave call. Leave is called after
// all children have been visited.
type Listener interface {
	Enter(n Node, ctx *Context) bool
	Leave(n Node, ctx *Context)
}

// BaseListener descends everywhere and does nothing. Embed it to
// implement only the callbacks you need.
type BaseListener struct{}

func (BaseListener) Enter(Node, *Context) bool { return true }
func (BaseListener) Leave(Node, *Context)      {}

// Context exposes the ancestors of the node currently being visited.
// It is only valid during the callback it is passed to.
type Context struct {
	stack []Node
	err   error
}

// Parent returns the immediate parent of the current node, or nil at the root.
func (c *Context) Parent() Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Ancestors returns all ancestors of the current node, nearest first.
func (c *Context) Ancestors() []Node {
	ancestors := make([]Node, len(c.stack))
	for i, n := range c.stack {
		ancestors[len(c.stack)-1-i] = n
	}
	return ancestors
}

// Depth returns the number of ancestors of the current node.
func (c *Context) Depth() int {
	return len(c.stack)
}

// EnclosingFunction returns the nearest FunctionDecl ancestor, or nil.
func (c *Context) EnclosingFunction() *FunctionDecl {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if f, ok := c.stack[i].(*FunctionDecl); ok {
			return f
		}
	}
	return nil
}

// Abort stops the walk. Walk returns err. The first abort wins.
func (c *Context) Abort(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Walk traverses the tree rooted at root depth-first, in source order.
// It returns the error passed to Context.Abort, if any.
func Walk(l Listener, root Node) error {
	ctx := &Context{}
	walk(l, root, ctx)
	return ctx.err
}

func walk(l Listener, n Node, ctx *Context) {
	if !l.Enter(n, ctx) || ctx.err != nil {
		return
	}

	ctx.stack = append(ctx.stack, n)
	for _, child := range Children(n) {
		walk(l, child, ctx)
		if ctx.err != nil {
			break
		}
	}
	ctx.stack = ctx.stack[:len(ctx.stack)-1]

	if ctx.err != nil {
		return
	}
	l.Leave(n, ctx)
}

type inspector func(Node) bool

func (f inspector) Enter(n Node, _ *Context) bool { return f(n) }
func (f inspector) Leave(Node, *Context)          {}

// Inspect calls f for every node in depth-first order. If f returns false
// the node's children are skipped.
func Inspect(root Node, f func(Node) bool) {
	_ = Walk(inspector(f), root)
}
