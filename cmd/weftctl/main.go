package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/gorilla/websocket"

	"github.com/weftlabs/weft/model"
	"github.com/weftlabs/weft/patch"
	"github.com/weftlabs/weft/ssr"
	"github.com/weftlabs/weft/txrx"
	"github.com/weftlabs/weft/view"
)

const WeftCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Weft control.

Renders the demo app server side, either once to stdout or live over a
websocket.

Usage:
    weftctl render [--items=<items>]
    weftctl serve [--bind=<bind>] [--port=<port>]

Options:
    -h --help        Show this screen.
    --version        Show version.
    --items=<items>  Number of demo list items [default: 3].
    --bind=<bind>    Listen address [default: 127.0.0.1].
    --port=<port>    Listen port [default: 8080].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], WeftCtlVersion)
	if err != nil {
		panic(err)
	}

	if render_, _ := opts.Bool("render"); render_ {
		render(opts)
	} else if serve_, _ := opts.Bool("serve"); serve_ {
		serve(opts)
	}
}

// demoApp is a counter plus an item list, driven entirely by document
// scoped events so that a remote client can fire them by name.
type demoApp struct {
	tree  *ssr.Tree
	root  *ssr.Node
	count *model.Model[int]
	items *model.ListPatchModel[string]
}

func newDemoApp(ctx context.Context, itemCount int) (*demoApp, error) {
	tree := ssr.NewTree()
	count := model.NewModel(0)
	items := model.NewListPatchModel[string]()
	for i := 0; i < itemCount; i += 1 {
		items.Push(fmt.Sprintf("item %d", i+1))
	}

	increments, incrementRx := txrx.Channel[any]()
	incrementRx.Respond(func(any) {
		count.VisitMut(func(v *int) {
			*v += 1
		})
	})

	adds, addRx := txrx.Channel[any]()
	addRx.Respond(func(any) {
		items.Push(fmt.Sprintf("item %d", items.Len()+1))
	})

	labels := make(chan string, 1)
	go func() {
		for v := range count.Subscribe() {
			label := fmt.Sprintf("count: %d", v)
			select {
			case labels <- label:
			default:
				// displace the unread label with the latest
				select {
				case <-labels:
				default:
				}
				labels <- label
			}
		}
	}()

	itemView := func(s string) *view.ViewBuilder {
		return view.Element("li").WithChild(view.Text(s))
	}

	// current items render statically, later patches arrive by stream
	current, sub := items.SnapshotAndSubscribe(ctx)
	itemPatches := make(chan patch.ListPatch[*view.ViewBuilder])
	go func() {
		defer close(itemPatches)
		for p := range sub {
			itemPatches <- patch.MapList(p, itemView)
		}
	}()

	list := view.Element("ul").
		WithChildStream(itemPatches).
		WithEvent("add-item", view.TargetDocument, adds)
	for _, s := range current {
		list.WithChild(itemView(s))
	}

	built, err := view.Element("div").
		WithAttrib("id", "app").
		WithChild(view.Element("p").
			WithChild(view.Text("count: 0").WithTextStream(labels)).
			WithEvent("increment", view.TargetDocument, increments)).
		WithChild(list).
		Build(ctx, tree)
	if err != nil {
		return nil, err
	}

	return &demoApp{
		tree:  tree,
		root:  built.(*ssr.Node),
		count: count,
		items: items,
	}, nil
}

func (self *demoApp) close() {
	self.count.Close()
	self.items.Close()
}

func render(opts docopt.Opts) {
	itemCount, err := opts.Int("--items")
	if err != nil {
		itemCount = 3
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newDemoApp(cancelCtx, itemCount)
	if err != nil {
		Err.Printf("Could not build the demo app (%s).\n", err)
		os.Exit(1)
	}
	defer app.close()

	Out.Printf("%s\n", app.root.HTML())
}

// clientEvent is one event fired by the remote client, addressed by scope
// and name.
type clientEvent struct {
	Target string          `json:"target"`
	Name   string          `json:"name"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

func serve(opts docopt.Opts) {
	bind, err := opts.String("--bind")
	if err != nil {
		bind = "127.0.0.1"
	}
	port, err := opts.Int("--port")
	if err != nil {
		port = 8080
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Err.Printf("Upgrade failed (%s).\n", err)
			return
		}
		serveClient(cancelCtx, ws)
	})

	address := net.JoinHostPort(bind, fmt.Sprintf("%d", port))
	Out.Printf("Listening on ws://%s/ws\n", address)
	if err := http.ListenAndServe(address, nil); err != nil {
		Err.Printf("Listen failed (%s).\n", err)
		os.Exit(1)
	}
}

// serveClient gives each websocket its own live app instance. Rendered
// HTML is pushed whenever it changes; events read from the socket are
// fired into the app's tree.
func serveClient(ctx context.Context, ws *websocket.Conn) {
	defer ws.Close()

	handleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := newDemoApp(handleCtx, 3)
	if err != nil {
		Err.Printf("Could not build the demo app (%s).\n", err)
		return
	}
	defer app.close()

	go func() {
		defer cancel()
		for {
			var event clientEvent
			if err := ws.ReadJSON(&event); err != nil {
				return
			}
			target := view.TargetDocument
			if event.Target == "window" {
				target = view.TargetWindow
			}
			app.tree.Fire(target, event.Name, event.Detail)
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	rendered := ""
	for {
		if html := app.root.HTML(); html != rendered {
			rendered = html
			if err := ws.WriteMessage(websocket.TextMessage, []byte(rendered)); err != nil {
				return
			}
		}
		select {
		case <-ticker.C:
		case <-handleCtx.Done():
			return
		}
	}
}
