package main

// General API documentation for swaggo. Run `swag init` to regenerate docs.
//
// @title           gend API
// @version         1.0
// @description     HTTP API for text generation with a pretrained language model.
//
// @contact.name   gend maintainers
// @contact.url    https://github.com/your-org/gend
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
