// package boot drives the loading screen shown while a session is resolved.
//
// [Loader] runs session initialization in the background and reports [ProgressUpdate] values on
// a channel without blocking. Progress is simulated: it climbs by a random step each tick and
// holds at 90% until initialization finishes, so the bar never completes before the session
// does.
//
// Halfway through the loading timeout a slow-connection warning is emitted. At the full timeout
// the loader gives up with the retry, login and guest options, and initialization is canceled.
package boot
