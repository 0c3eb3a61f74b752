// Package client assembles every sessionkit component from one Config.
//
//	var cfg client.Config
//	if err := config.LoadConfig("sessionkit", &cfg, config.WithEnvPrefix("SESSIONKIT")); err != nil {
//	    return err
//	}
//	c, err := client.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer c.Close(ctx)
//	if err := c.Start(ctx); err != nil { // resumes persisted sessions
//	    return err
//	}
package client
