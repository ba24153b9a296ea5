// Package reactive provides an in-process registry of named, typed state
// containers ("cells") with observer notification, dependency relations and
// lifecycle-managed controllers.
//
// # Overview
//
// The package organizes state around four concepts:
//
//  1. Cells: singleton value holders identified by (type, key)
//  2. Registry: the process-wide owner of all live cells
//  3. Controllers: cells with a synchronous init lifecycle and state operators
//  4. AsyncControllers: cells whose payload is an async state machine
//
// # Basic Usage
//
// Create cells through a registry:
//
//	reg := reactive.NewRegistry()
//
//	counter, err := reactive.Create(reg, func() int { return 0 },
//	    reactive.WithKey("counter"),
//	)
//
//	id := counter.AddObserver(func(v int) {
//	    fmt.Println("counter is now", v)
//	})
//
//	counter.UpdateNotifying(1) // observers fire
//	counter.UpdateSilently(2)  // observers stay quiet
//	counter.RemoveObserver(id)
//
// Every cell is a singleton per (type, key). Creating a second cell with an
// occupied key fails with an identity-conflict error. Cells created without
// a key get a minted identity and are therefore always new.
//
// # Related Cells
//
// Cells may declare one-way dependency edges on other cells. A notification
// on a cell also notifies every cell that declared it as related, after the
// cell's own observers have run. Relations are validated eagerly: cycles,
// self references and repeated ancestors fail the constructor with a
// structured error before the cell is committed to the registry.
//
//	settings, _ := reactive.Create(reg, newSettings, reactive.WithKey("settings"))
//	session, _ := reactive.Create(reg, newSession,
//	    reactive.WithKey("session"),
//	    reactive.WithRelated(settings),
//	)
//
//	// Typed lookup through the relation edge:
//	s, err := reactive.From[*Settings](session)
//
// # Controllers
//
// Controllers wrap a cell with an init hook that runs exactly once per
// construction, transform operators, and cross-controller listening:
//
//	cart, err := reactive.CreateController(reg, func() Cart { return Cart{} },
//	    func(c *reactive.Controller[Cart]) {
//	        // runs once, before the first read
//	    },
//	    reactive.WithKey("cart"),
//	)
//
//	cart.TransformState(func(c Cart) Cart {
//	    c.Items++
//	    return c
//	})
//
//	total := reactive.ListenTo(totals, cart, func(c Cart) {
//	    // re-runs on every cart change
//	}, true)
//
// # Async Controllers
//
// AsyncControllers hold an AsyncState machine
// (Initial/Loading/Success/Error/Empty). Their init runs asynchronously;
// failures are captured into Error state instead of escaping:
//
//	users, err := reactive.CreateAsyncController(reg,
//	    func(ctx context.Context) ([]User, error) {
//	        return api.FetchUsers(ctx)
//	    },
//	    reactive.WithKey("users"),
//	)
//
//	users.Reload(ctx) // concurrent reloads while one is in flight are dropped
//
//	state := users.State()
//	if state.IsSuccess() {
//	    list, _ := state.Data()
//	    ...
//	}
//
// # Lifecycle
//
// Cells are disposed explicitly, through Registry.Cleanup, or automatically
// when their reference count decays to zero with auto-dispose enabled (the
// dispose is debounced so a remove-then-add reference pair keeps the cell
// alive). A disposed cell is not dead: the next value access re-runs its
// factory and init under the same identity.
//
// RecreateInstance re-invokes a cell's factory in place, preserving the cell
// identity and its observers, and fires a single notification.
//
// # Extensions
//
// Extensions observe registry lifecycle events for cross-cutting concerns:
//
//	reg := reactive.NewRegistry(
//	    reactive.WithExtension(extensions.NewLoggingExtension(logger)),
//	)
//
// See the extensions package for zerolog logging and prometheus metrics.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Synchronous operators run to
// completion before returning; observer callbacks fire in subscription order
// on the calling goroutine, before graph propagation.
package reactive
