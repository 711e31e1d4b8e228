// Package lazy provides deferred component handles for code-split views.
//
// A route table never holds view code. It holds a *Ref: a named,
// capability-typed thunk that fetches the component chunk only when a
// navigation actually needs it. Once a chunk has loaded, the Ref keeps it;
// a failed load is not remembered, so the next navigation retries.
//
// Chunks come from a Loader. Three are provided:
//
//	StaticLoader  in-memory chunks (tests, demos)
//	FSLoader      files under an fs.FS, e.g. os.DirFS("dist")
//	S3Loader      objects in an S3 bucket via aws-sdk-go-v2
//
// # Usage
//
//	reg := lazy.NewRegistry(lazy.NewFSLoader(os.DirFS("dist")))
//	home := reg.Ref("pages/HomePage")
//
//	// later, on navigation:
//	c, err := home.Load(ctx)
package lazy
