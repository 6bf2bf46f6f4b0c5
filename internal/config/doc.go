// Package config loads vnav settings and route tables.
//
// Settings come from vnav.yaml, vnav.json or vnav.toml in the working
// directory (or the file named with --config) and from VNAV_ environment
// variables, which win over the file.
//
// # Configuration File Structure
//
//	mode: history          # hash, history or abstract
//	base: /app
//	fallback: true
//	log_level: info
//	routes: routes.yaml    # route table, relative to the config file
//	watch: true            # hot-add routes when the table changes
//	serve:
//	  addr: localhost:7070
//	  metrics: true
//	chunks:
//	  bucket: my-views
//	  prefix: views/
//	  region: eu-west-1
//
// # Route Tables
//
//	routes:
//	  - path: /
//	    component: Home
//	  - path: /users/:id
//	    name: user
//	    chunk: user.json   # loaded lazily from the chunk bucket
//	    children:
//	      - path: posts
//	        component: UserPosts
//	  - path: /old
//	    redirect: /
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	specs, err := config.LoadRoutes(cfg.RoutesPath())
//	routes, err := config.BuildRoutes(specs, nil)
//	r, err := router.New(cfg.RouterOptions(routes...)...)
package config
